package storeService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"perfectTipsBot/models"
	"perfectTipsBot/services/oddsService"
)

var ErrDuplicateTip = errors.New("tip already exists for this match")

// Store persists tips and accumulators. Each method is atomic on its own;
// nothing spans calls.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// FindPending returns pending tips whose match started before the cutoff. An
// empty league means every league.
func (s *Store) FindPending(ctx context.Context, league string, before time.Time) ([]models.Tip, error) {
	var tips []models.Tip
	q := s.db.WithContext(ctx).Where("status = ? AND match_date < ?", models.StatusPending, before)
	if league != "" {
		q = q.Where("league = ?", league)
	}
	if err := q.Order("match_date").Find(&tips).Error; err != nil {
		return nil, fmt.Errorf("find pending tips: %w", err)
	}
	return tips, nil
}

// BatchUpdateStatus moves the given tips out of pending in one statement. The
// status = pending guard makes a concurrent pass's write a no-op; the returned
// count is the number of rows this call actually moved.
func (s *Store) BatchUpdateStatus(ctx context.Context, ids []uint, status models.TipStatus, result, summary *string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Tip{}).
		Where("id IN ? AND status = ?", ids, models.StatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"result":         result,
			"result_summary": summary,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("update %d tips to %s: %w", len(ids), status, res.Error)
	}
	return res.RowsAffected, nil
}

type accumulatorRow struct {
	AccumulatorID uint
	Status        models.TipStatus
	TipStatus     models.TipStatus
}

// FindAccumulators loads accumulators in the given status together with every
// member tip's status in a single joined query. Archived member tips still count.
func (s *Store) FindAccumulators(ctx context.Context, status models.TipStatus) ([]models.AccumulatorState, error) {
	var rows []accumulatorRow
	err := s.db.WithContext(ctx).
		Table("accumulators").
		Select("accumulators.id AS accumulator_id, accumulators.status AS status, tips.status AS tip_status").
		Joins("JOIN accumulator_tips ON accumulator_tips.accumulator_id = accumulators.id").
		Joins("JOIN tips ON tips.id = accumulator_tips.tip_id").
		Where("accumulators.status = ? AND accumulators.deleted_at IS NULL", status).
		Order("accumulators.id, accumulator_tips.position").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find %s accumulators: %w", status, err)
	}

	var states []models.AccumulatorState
	for _, row := range rows {
		if len(states) == 0 || states[len(states)-1].ID != row.AccumulatorID {
			states = append(states, models.AccumulatorState{ID: row.AccumulatorID, Status: row.Status})
		}
		last := &states[len(states)-1]
		last.MemberStatuses = append(last.MemberStatuses, row.TipStatus)
	}
	return states, nil
}

func (s *Store) BatchUpdateAccumulatorStatus(ctx context.Context, ids []uint, status models.TipStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Accumulator{}).
		Where("id IN ? AND status = ?", ids, models.StatusPending).
		Update("status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("update %d accumulators to %s: %w", len(ids), status, res.Error)
	}
	return res.RowsAffected, nil
}

// HasTip includes archived tips so a match is never tipped twice. The match
// id is only meaningful together with the source that issued it.
func (s *Store) HasTip(ctx context.Context, league, source, matchID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Unscoped().Model(&models.Tip{}).
		Where("league = ? AND source = ? AND match_id = ?", league, source, matchID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check tip %s/%s/%s: %w", league, source, matchID, err)
	}
	return count > 0, nil
}

func (s *Store) CreateTip(ctx context.Context, tip *models.Tip) error {
	exists, err := s.HasTip(ctx, tip.League, tip.Source, tip.MatchID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateTip, tip.League, tip.MatchID)
	}
	if tip.Status == "" {
		tip.Status = models.StatusPending
	}
	if err := s.db.WithContext(ctx).Create(tip).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateTip, tip.League, tip.MatchID)
		}
		return fmt.Errorf("create tip %s/%s: %w", tip.League, tip.MatchID, err)
	}
	return nil
}

// CreateAccumulator stores the accumulator and its ordered legs. Combined odds
// are computed here from the member tips.
func (s *Store) CreateAccumulator(ctx context.Context, acc *models.Accumulator, legs []models.Tip) error {
	if len(legs) < 2 {
		return fmt.Errorf("accumulator needs at least two legs, got %d", len(legs))
	}

	prices := make([]float64, 0, len(legs))
	acc.Members = acc.Members[:0]
	for i, leg := range legs {
		prices = append(prices, leg.Odds)
		acc.Members = append(acc.Members, models.AccumulatorTip{TipID: leg.ID, Position: i + 1})
	}
	acc.CombinedOdds = oddsService.CombinedOdds(prices)
	if acc.Status == "" {
		acc.Status = models.StatusPending
	}

	if err := s.db.WithContext(ctx).Create(acc).Error; err != nil {
		return fmt.Errorf("create accumulator: %w", err)
	}
	return nil
}

// ArchiveBefore soft deletes settled tips and accumulators older than cutoff.
// Nothing is ever hard deleted.
func (s *Store) ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var archived int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("status <> ? AND match_date < ?", models.StatusPending, cutoff).Delete(&models.Tip{})
		if res.Error != nil {
			return fmt.Errorf("archive tips: %w", res.Error)
		}
		archived = res.RowsAffected

		res = tx.Where("status <> ? AND created_at < ?", models.StatusPending, cutoff).Delete(&models.Accumulator{})
		if res.Error != nil {
			return fmt.Errorf("archive accumulators: %w", res.Error)
		}
		return nil
	})
	return archived, err
}
