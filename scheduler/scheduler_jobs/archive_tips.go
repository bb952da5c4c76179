package scheduler_jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"perfectTipsBot/services/common"
)

type Archiver interface {
	ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ArchiveTips soft deletes settled tips older than maxAge.
func ArchiveTips(ctx context.Context, archiver Archiver, maxAge time.Duration, now time.Time, db *gorm.DB, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered in ArchiveTips", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic recovered in ArchiveTips: %v", r)
		}
	}()

	cutoff := now.Add(-maxAge)
	archived, err := archiver.ArchiveBefore(ctx, cutoff)
	if err != nil {
		common.LogError(db, log, "ArchiveTips", "", err)
		return err
	}
	log.Info("archived settled tips", zap.Int64("tips", archived), zap.Time("cutoff", cutoff))
	return nil
}
