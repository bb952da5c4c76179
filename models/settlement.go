package models

import "time"

type SettlementMode string

const (
	ModeBatch         SettlementMode = "batch"
	ModeOpportunistic SettlementMode = "opportunistic"
)

// MatchSettlement describes how the tips attached to one match were settled.
type MatchSettlement struct {
	MatchID    string    `json:"matchId"`
	League     string    `json:"league"`
	HomeTeam   string    `json:"homeTeam"`
	AwayTeam   string    `json:"awayTeam"`
	Score      *string   `json:"score"`
	Descriptor string    `json:"descriptor"`
	TipIDs     []uint    `json:"tipIds"`
	Status     TipStatus `json:"status"`
}

type SkippedLeague struct {
	League string `json:"league"`
	Reason string `json:"reason"`
}

// SettlementReport is what a settlement pass hands to the notification layer.
// SettledCount counts tips that reached a verdict; AppliedCount counts rows the
// guarded writes actually moved out of pending, so a racing pass sees 0 there.
type SettlementReport struct {
	RunID               string            `json:"runId"`
	Mode                SettlementMode    `json:"mode"`
	StartedAt           time.Time         `json:"startedAt"`
	FinishedAt          time.Time         `json:"finishedAt"`
	PendingCount        int               `json:"pendingCount"`
	SettledCount        int               `json:"settledCount"`
	AppliedCount        int64             `json:"appliedCount"`
	ManualReviewCount   int               `json:"manualReviewCount"`
	ManualReviewTipIDs  []uint            `json:"manualReviewTipIds"`
	UnresolvedCount     int               `json:"unresolvedCount"`
	UnrecognizedCount   int               `json:"unrecognizedCount"`
	WriteFailures       int               `json:"writeFailures"`
	SkippedLeagues      []SkippedLeague   `json:"skippedLeagues"`
	PerMatchResults     []MatchSettlement `json:"perMatchResults"`
	AccumulatorsSettled int               `json:"accumulatorsSettled"`
}

// Quiet reports whether the pass changed nothing worth telling a human about.
func (r SettlementReport) Quiet() bool {
	return r.SettledCount == 0 && r.ManualReviewCount == 0 && r.AccumulatorsSettled == 0 &&
		r.WriteFailures == 0 && len(r.SkippedLeagues) == 0
}
