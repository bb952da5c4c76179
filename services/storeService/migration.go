package storeService

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"perfectTipsBot/models"
)

type dataMigration struct {
	name string
	run  func(tx *gorm.DB) (int64, error)
}

// RunDataMigrations applies the named data fixes that have not been recorded
// in the migrations table yet. Each one commits together with its record.
// Tips written before match ids were scoped by source came from primarySource.
func RunDataMigrations(ctx context.Context, db *gorm.DB, defaultLeague, primarySource string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	migrations := []dataMigration{
		{
			name: "backfill_tip_league",
			run: func(tx *gorm.DB) (int64, error) {
				res := tx.Model(&models.Tip{}).Where("league = ?", "").Update("league", defaultLeague)
				return res.RowsAffected, res.Error
			},
		},
		{
			name: "backfill_tip_source",
			run: func(tx *gorm.DB) (int64, error) {
				res := tx.Model(&models.Tip{}).Where("source = ?", "").Update("source", primarySource)
				return res.RowsAffected, res.Error
			},
		},
		{
			// the unique index used to cover (league, match_id) only
			name: "rebuild_tip_league_match_index",
			run: func(tx *gorm.DB) (int64, error) {
				if err := tx.Migrator().DropIndex(&models.Tip{}, "tip_league_match"); err != nil {
					return 0, err
				}
				return 0, tx.Migrator().CreateIndex(&models.Tip{}, "tip_league_match")
			},
		},
	}

	for _, m := range migrations {
		var existing int64
		if err := db.WithContext(ctx).Model(&models.Migration{}).Where("name = ?", m.name).Count(&existing).Error; err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if existing > 0 {
			log.Debug("data migration already executed", zap.String("migration", m.name))
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rows, err := m.run(tx)
			if err != nil {
				return err
			}
			log.Info("data migration completed", zap.String("migration", m.name), zap.Int64("rows", rows))
			return tx.Create(&models.Migration{Name: m.name, RowsAffected: rows, ExecutedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("run migration %s: %w", m.name, err)
		}
	}
	return nil
}
