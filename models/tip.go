package models

import (
	"time"

	"gorm.io/gorm"
)

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
	TierVIP  Tier = "vip"
)

type TipStatus string

const (
	StatusPending TipStatus = "pending"
	StatusWon     TipStatus = "won"
	StatusLost    TipStatus = "lost"
	StatusVoid    TipStatus = "void"
)

// Terminal reports whether the status can no longer change.
func (s TipStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusVoid
}

// Tip is one prediction for one match. A tip is created once per (league, match) pair
// and archived by soft delete, never removed. Source names the provider that
// issued MatchID.
type Tip struct {
	gorm.Model
	ID             uint      `gorm:"primaryKey"`
	League         string    `gorm:"uniqueIndex:tip_league_match,priority:1;size:64"`
	Source         string    `gorm:"uniqueIndex:tip_league_match,priority:2;size:32"`
	MatchID        string    `gorm:"uniqueIndex:tip_league_match,priority:3;size:64"`
	HomeTeam       string    `gorm:"size:128"`
	AwayTeam       string    `gorm:"size:128"`
	MatchDate      time.Time `gorm:"index"`
	PredictionCode string    `gorm:"size:32"`
	Odds           float64
	Confidence     int
	Tier           Tier      `gorm:"size:8"`
	Status         TipStatus `gorm:"size:8;index;default:pending"`
	Result         *string   `gorm:"size:16"`
	ResultSummary  *string   `gorm:"size:64"`
	Analysis       string    `gorm:"type:text"`
}
