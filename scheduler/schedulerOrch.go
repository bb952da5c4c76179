package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"perfectTipsBot/config"
	"perfectTipsBot/scheduler/scheduler_jobs"
	"perfectTipsBot/services/common"
)

const (
	settlementTimeout = 10 * time.Minute
	generationTimeout = 30 * time.Minute
	archiveTimeout    = 5 * time.Minute
)

type Jobs struct {
	Settler   scheduler_jobs.BatchSettler
	Generator scheduler_jobs.LeagueGenerator
	Archiver  scheduler_jobs.Archiver
}

// SetupCron registers the settlement, generation and archive jobs and starts
// the scheduler. The caller stops it on shutdown.
func SetupCron(cfg *config.Config, jobs Jobs, db *gorm.DB, log *zap.Logger) (*cron.Cron, error) {
	cronService := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	_, err := cronService.AddFunc(cfg.Schedule.Settlement, func() {
		ctx, cancel := context.WithTimeout(context.Background(), settlementTimeout)
		defer cancel()
		if err := scheduler_jobs.CheckTipSettlement(ctx, jobs.Settler, db, log); err != nil {
			log.Error("settlement job failed", zap.Error(err))
		}
	})
	if err != nil {
		common.LogError(db, log, "CRON ERR", "", err)
		return nil, err
	}

	_, err = cronService.AddFunc(cfg.Schedule.Generation, func() {
		ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
		defer cancel()
		if err := scheduler_jobs.GenerateTips(ctx, jobs.Generator, cfg.LeagueSlugs(), db, log); err != nil {
			log.Error("generation job failed", zap.Error(err))
		}
	})
	if err != nil {
		common.LogError(db, log, "CRON ERR", "", err)
		return nil, err
	}

	_, err = cronService.AddFunc(cfg.Schedule.Archive, func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := scheduler_jobs.ArchiveTips(ctx, jobs.Archiver, cfg.Settlement.ArchiveAfter, time.Now(), db, log); err != nil {
			log.Error("archive job failed", zap.Error(err))
		}
	})
	if err != nil {
		common.LogError(db, log, "CRON ERR", "", err)
		return nil, err
	}

	cronService.Start()
	return cronService, nil
}
