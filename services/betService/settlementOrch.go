package betService

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"perfectTipsBot/models"
	"perfectTipsBot/services/common"
	"perfectTipsBot/services/metricsService"
	"perfectTipsBot/services/predictionService"
)

// TipStore is the persistence the settlement path needs.
type TipStore interface {
	FindPending(ctx context.Context, league string, before time.Time) ([]models.Tip, error)
	BatchUpdateStatus(ctx context.Context, ids []uint, status models.TipStatus, result, summary *string) (int64, error)
	FindAccumulators(ctx context.Context, status models.TipStatus) ([]models.AccumulatorState, error)
	BatchUpdateAccumulatorStatus(ctx context.Context, ids []uint, status models.TipStatus) (int64, error)
}

type ResultSource interface {
	FetchResults(ctx context.Context, league string, count int) ([]models.MatchResult, error)
	FetchMatchExtras(ctx context.Context, match models.Match) (*models.MatchExtras, error)
}

type Notifier interface {
	NotifySettlement(ctx context.Context, report models.SettlementReport) error
}

type SettlerConfig struct {
	DefaultLeague        string
	BatchLimit           int
	OpportunisticLimit   int
	OpportunisticTimeout time.Duration
}

// Settler runs settlement passes. It holds no tip state between passes; two
// passes racing on the same league are kept correct by the store's guarded writes.
type Settler struct {
	store     TipStore
	source    ResultSource
	notifier  Notifier
	evaluator *predictionService.Evaluator
	log       *zap.Logger
	metrics   *metricsService.Metrics
	cfg       SettlerConfig
	now       func() time.Time

	background sync.WaitGroup
}

func NewSettler(store TipStore, source ResultSource, notifier Notifier, log *zap.Logger, metrics *metricsService.Metrics, cfg SettlerConfig) *Settler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Settler{
		store:     store,
		source:    source,
		notifier:  notifier,
		evaluator: predictionService.NewEvaluator(log),
		log:       log,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

// writeKey groups verdicts so that one guarded write covers every tip sharing
// an outcome and a score.
type writeKey struct {
	status  models.TipStatus
	score   string
	summary string
	scored  bool
}

type pendingWrite struct {
	key     writeKey
	tipIDs  []uint
	matches []models.MatchSettlement
}

type leagueOutcome struct {
	writes       map[writeKey]*pendingWrite
	manualReview []uint
	unresolved   int
	unrecognized int
}

func (s *Settler) RunBatch(ctx context.Context) (models.SettlementReport, error) {
	return s.Settle(ctx, models.ModeBatch, "", s.cfg.BatchLimit)
}

// TriggerOpportunistic starts a settlement pass for one league in the
// background and returns immediately. Failures are logged and dropped.
func (s *Settler) TriggerOpportunistic(league string) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("opportunistic settlement panicked",
					zap.String("league", league),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
			}
		}()

		timeout := s.cfg.OpportunisticTimeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := s.Settle(ctx, models.ModeOpportunistic, league, s.cfg.OpportunisticLimit); err != nil {
			s.log.Warn("opportunistic settlement failed", zap.String("league", league), zap.Error(err))
		}
	}()
}

// Wait blocks until every opportunistic pass started so far has returned, or
// ctx is done.
func (s *Settler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settle runs one pass over pending tips whose match has started. An empty
// league settles every league. Leagues whose results cannot be fetched are
// skipped and reported; that is not an error.
func (s *Settler) Settle(ctx context.Context, mode models.SettlementMode, league string, limit int) (models.SettlementReport, error) {
	report := models.SettlementReport{
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: s.now().UTC(),
	}
	log := s.log.With(zap.String("run_id", report.RunID), zap.String("mode", string(mode)))

	pending, err := s.store.FindPending(ctx, league, report.StartedAt)
	if err != nil {
		return report, fmt.Errorf("settlement %s: %w", report.RunID, err)
	}
	report.PendingCount = len(pending)

	byLeague := map[string][]models.Tip{}
	for _, tip := range pending {
		l := tip.League
		if l == "" {
			l = s.cfg.DefaultLeague
		}
		byLeague[l] = append(byLeague[l], tip)
	}
	leagues := make([]string, 0, len(byLeague))
	for l := range byLeague {
		leagues = append(leagues, l)
	}
	sort.Strings(leagues)

	writes := map[writeKey]*pendingWrite{}
	for _, l := range leagues {
		results, err := s.source.FetchResults(ctx, l, limit)
		if err != nil {
			log.Warn("skipping league, results unavailable", zap.String("league", l), zap.Error(err))
			report.SkippedLeagues = append(report.SkippedLeagues, models.SkippedLeague{League: l, Reason: err.Error()})
			continue
		}

		outcome := s.settleLeague(ctx, log, byLeague[l], results)
		for key, w := range outcome.writes {
			if existing, ok := writes[key]; ok {
				existing.tipIDs = append(existing.tipIDs, w.tipIDs...)
				existing.matches = append(existing.matches, w.matches...)
				continue
			}
			writes[key] = w
		}
		report.ManualReviewTipIDs = append(report.ManualReviewTipIDs, outcome.manualReview...)
		report.UnresolvedCount += outcome.unresolved
		report.UnrecognizedCount += outcome.unrecognized
	}
	report.ManualReviewCount = len(report.ManualReviewTipIDs)

	s.applyWrites(ctx, log, writes, &report)

	var accErr error
	report.AccumulatorsSettled, accErr = s.SettleAccumulators(ctx)
	if accErr != nil {
		log.Error("accumulator settlement failed", zap.Error(accErr))
	}

	report.FinishedAt = s.now().UTC()
	s.metrics.SettlementRun(string(mode), report.FinishedAt.Sub(report.StartedAt))
	s.metrics.ManualReview(report.ManualReviewCount)

	log.Info("settlement pass finished",
		zap.Int("pending", report.PendingCount),
		zap.Int("settled", report.SettledCount),
		zap.Int64("applied", report.AppliedCount),
		zap.Int("manual_review", report.ManualReviewCount),
		zap.Int("unresolved", report.UnresolvedCount),
		zap.Int("write_failures", report.WriteFailures),
		zap.Int("skipped_leagues", len(report.SkippedLeagues)),
		zap.Int("accumulators", report.AccumulatorsSettled),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifySettlement(ctx, report); err != nil {
			log.Warn("settlement notification failed", zap.Error(err))
		}
	}

	return report, accErr
}

// resultKey scopes a match id to the source that issued it; the providers
// reuse the same numbers for unrelated fixtures.
func resultKey(source, matchID string) string {
	return source + "/" + matchID
}

// indexResults keys results by source-scoped match id and by team pair plus
// kickoff day. The pair index is what settles a tip from the other source.
func indexResults(results []models.MatchResult) (map[string]*models.MatchResult, map[string]*models.MatchResult) {
	byID := make(map[string]*models.MatchResult, len(results))
	byPair := make(map[string]*models.MatchResult, len(results))
	for i := range results {
		r := &results[i]
		byID[resultKey(r.Source, r.MatchID)] = r
		byPair[common.PairKey(r.HomeTeam, r.AwayTeam, r.KickOff.UTC().Format(time.DateOnly))] = r
	}
	return byID, byPair
}

func (s *Settler) settleLeague(ctx context.Context, log *zap.Logger, tips []models.Tip, results []models.MatchResult) leagueOutcome {
	outcome := leagueOutcome{writes: map[writeKey]*pendingWrite{}}
	byID, byPair := indexResults(results)
	extrasFetched := map[string]bool{}

	for _, tip := range tips {
		result, ok := byID[resultKey(tip.Source, tip.MatchID)]
		if !ok {
			result, ok = byPair[common.PairKey(tip.HomeTeam, tip.AwayTeam, tip.MatchDate.UTC().Format(time.DateOnly))]
		}
		if !ok {
			outcome.unresolved++
			continue
		}

		if result.Status == models.MatchAbandoned {
			outcome.add(tip, *result, writeKey{status: models.StatusVoid, summary: "abandoned"})
			continue
		}
		if !result.Scored() {
			outcome.unresolved++
			continue
		}

		if code, err := predictionService.ParseCode(tip.PredictionCode); err == nil && code.NeedsExtras() &&
			result.Extras == nil && !extrasFetched[resultKey(result.Source, result.MatchID)] {
			extrasFetched[resultKey(result.Source, result.MatchID)] = true
			extras, err := s.source.FetchMatchExtras(ctx, result.Match)
			if err != nil {
				log.Warn("match extras unavailable", zap.String("match_id", result.MatchID), zap.Error(err))
			}
			result.Extras = extras
		}

		verdict := s.evaluator.Evaluate(tip.PredictionCode, *result)
		switch verdict.Kind {
		case predictionService.RequiresManualReview:
			outcome.manualReview = append(outcome.manualReview, tip.ID)
			continue
		case predictionService.Unrecognized:
			outcome.unrecognized++
		}

		outcome.add(tip, *result, writeKey{
			status:  verdict.Outcome,
			score:   predictionService.FormatScore(*result.GoalsHome, *result.GoalsAway),
			summary: predictionService.DescribeResult(*result),
			scored:  true,
		})
	}
	return outcome
}

func (o *leagueOutcome) add(tip models.Tip, result models.MatchResult, key writeKey) {
	w, ok := o.writes[key]
	if !ok {
		w = &pendingWrite{key: key}
		o.writes[key] = w
	}
	w.tipIDs = append(w.tipIDs, tip.ID)

	settlement := models.MatchSettlement{
		MatchID:    result.MatchID,
		League:     tip.League,
		HomeTeam:   result.HomeTeam,
		AwayTeam:   result.AwayTeam,
		Descriptor: key.summary,
		TipIDs:     []uint{tip.ID},
		Status:     key.status,
	}
	if key.scored {
		score := key.score
		settlement.Score = &score
	}
	w.matches = append(w.matches, settlement)
}

// applyWrites issues one guarded write per outcome group. A failed group is
// counted and left pending for the next pass.
func (s *Settler) applyWrites(ctx context.Context, log *zap.Logger, writes map[writeKey]*pendingWrite, report *models.SettlementReport) {
	groups := make([]*pendingWrite, 0, len(writes))
	for _, w := range writes {
		groups = append(groups, w)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].key, groups[j].key
		if a.status != b.status {
			return a.status < b.status
		}
		if a.score != b.score {
			return a.score < b.score
		}
		return a.summary < b.summary
	})

	for _, w := range groups {
		var score, summary *string
		if w.key.scored {
			score = &w.key.score
		}
		if w.key.summary != "" {
			summary = &w.key.summary
		}

		applied, err := s.store.BatchUpdateStatus(ctx, w.tipIDs, w.key.status, score, summary)
		if err != nil {
			log.Error("tip status write failed",
				zap.String("status", string(w.key.status)),
				zap.Int("tips", len(w.tipIDs)),
				zap.Error(err),
			)
			report.WriteFailures += len(w.tipIDs)
			continue
		}

		report.SettledCount += len(w.tipIDs)
		report.AppliedCount += applied
		report.PerMatchResults = append(report.PerMatchResults, w.matches...)
		s.metrics.TipSettled(string(w.key.status), int(applied))
	}
}
