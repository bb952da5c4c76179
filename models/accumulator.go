package models

import "gorm.io/gorm"

// Accumulator ("schedina") bundles tips. Membership is fixed at creation and
// CombinedOdds is the product of the member odds at that moment.
type Accumulator struct {
	gorm.Model
	ID           uint `gorm:"primaryKey"`
	RiskLevel    int
	CombinedOdds float64
	Tier         Tier             `gorm:"size:8"`
	Status       TipStatus        `gorm:"size:8;index;default:pending"`
	Members      []AccumulatorTip `gorm:"foreignKey:AccumulatorID"`
}

type AccumulatorTip struct {
	ID            uint `gorm:"primaryKey"`
	AccumulatorID uint `gorm:"index"`
	TipID         uint `gorm:"index"`
	Tip           Tip  `gorm:"foreignKey:TipID"`
	Position      int
}

// AccumulatorState is an accumulator with the current statuses of its members,
// in position order.
type AccumulatorState struct {
	ID             uint
	Status         TipStatus
	MemberStatuses []TipStatus
}
