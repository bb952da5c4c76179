package betService

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"perfectTipsBot/models"
)

// AggregateStatus derives an accumulator's status from all of its members. It is
// recomputed from the full member set on every pass, so the order in which legs
// settle does not matter. A void leg returns its stake and does not sink the bet.
func AggregateStatus(members []models.TipStatus) models.TipStatus {
	if len(members) == 0 {
		return models.StatusPending
	}

	var won, void, pending int
	for _, status := range members {
		switch status {
		case models.StatusLost:
			return models.StatusLost
		case models.StatusWon:
			won++
		case models.StatusVoid:
			void++
		default:
			pending++
		}
	}

	switch {
	case pending > 0:
		return models.StatusPending
	case void == len(members):
		return models.StatusVoid
	default:
		return models.StatusWon
	}
}

// SettleAccumulators re-aggregates every pending accumulator and writes the
// ones that reached a terminal status, one guarded write per status. It returns
// how many accumulators were actually moved.
func (s *Settler) SettleAccumulators(ctx context.Context) (int, error) {
	states, err := s.store.FindAccumulators(ctx, models.StatusPending)
	if err != nil {
		return 0, err
	}

	byStatus := map[models.TipStatus][]uint{}
	for _, acc := range states {
		status := AggregateStatus(acc.MemberStatuses)
		if status.Terminal() {
			byStatus[status] = append(byStatus[status], acc.ID)
		}
	}

	settled := 0
	var failed []error
	for _, status := range []models.TipStatus{models.StatusWon, models.StatusLost, models.StatusVoid} {
		ids := byStatus[status]
		if len(ids) == 0 {
			continue
		}
		applied, err := s.store.BatchUpdateAccumulatorStatus(ctx, ids, status)
		if err != nil {
			s.log.Error("accumulator status write failed", zap.String("status", string(status)), zap.Error(err))
			failed = append(failed, err)
			continue
		}
		settled += int(applied)
		s.metrics.AccumulatorSettled(string(status), int(applied))
	}

	if len(failed) > 0 {
		return settled, fmt.Errorf("%d accumulator writes failed: %w", len(failed), errors.Join(failed...))
	}
	return settled, nil
}
