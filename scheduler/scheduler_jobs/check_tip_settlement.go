package scheduler_jobs

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"perfectTipsBot/models"
	"perfectTipsBot/services/common"
)

type BatchSettler interface {
	RunBatch(ctx context.Context) (models.SettlementReport, error)
}

// CheckTipSettlement runs the scheduled settlement pass over every league.
func CheckTipSettlement(ctx context.Context, settler BatchSettler, db *gorm.DB, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered in CheckTipSettlement", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic recovered in CheckTipSettlement: %v", r)
			common.LogError(db, log, "CheckTipSettlement", "", err)
		}
	}()

	report, err := settler.RunBatch(ctx)
	if err != nil {
		common.LogError(db, log, "CheckTipSettlement", "", err)
		return err
	}

	for _, skipped := range report.SkippedLeagues {
		common.LogError(db, log, "CheckTipSettlement", skipped.League, fmt.Errorf("league skipped: %s", skipped.Reason))
	}
	return nil
}
