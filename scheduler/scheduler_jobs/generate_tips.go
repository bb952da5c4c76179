package scheduler_jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"perfectTipsBot/services/common"
	"perfectTipsBot/services/generationService"
)

type LeagueGenerator interface {
	GenerateForLeague(ctx context.Context, league string) (generationService.GenerationReport, error)
}

// GenerateTips runs generation for each league in turn. A failing league is
// recorded and the rest still run.
func GenerateTips(ctx context.Context, generator LeagueGenerator, leagues []string, db *gorm.DB, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered in GenerateTips", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic recovered in GenerateTips: %v", r)
			common.LogError(db, log, "GenerateTips", "", err)
		}
	}()

	var errs []error
	for _, league := range leagues {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, genErr := generator.GenerateForLeague(ctx, league); genErr != nil {
			common.LogError(db, log, "GenerateTips", league, genErr)
			errs = append(errs, genErr)
		}
	}
	return errors.Join(errs...)
}
