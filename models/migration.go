package models

import (
	"time"

	"gorm.io/gorm"
)

// Migration records a named one-off data migration so it runs once per database.
type Migration struct {
	gorm.Model
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"uniqueIndex;size:255"`
	RowsAffected int64
	ExecutedAt   time.Time
}
