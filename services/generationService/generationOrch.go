package generationService

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"perfectTipsBot/config"
	"perfectTipsBot/models"
	"perfectTipsBot/services/metricsService"
	"perfectTipsBot/services/oddsService"
	"perfectTipsBot/services/storeService"
	"perfectTipsBot/services/tierService"
)

const (
	MinConfidence = 60
	MaxConfidence = 95

	enrichmentWorkers = 4
)

type MatchSource interface {
	FetchUpcoming(ctx context.Context, league string, count int) ([]models.Match, error)
	FetchResults(ctx context.Context, league string, count int) ([]models.MatchResult, error)
	FetchOdds(ctx context.Context, match models.Match) (models.MarketOdds, error)
	FetchStandings(ctx context.Context, league string) ([]models.Standing, error)
	FetchHeadToHead(ctx context.Context, match models.Match, last int) ([]models.MatchResult, error)
}

type TipWriter interface {
	HasTip(ctx context.Context, league, source, matchID string) (bool, error)
	CreateTip(ctx context.Context, tip *models.Tip) error
	CreateAccumulator(ctx context.Context, acc *models.Accumulator, legs []models.Tip) error
}

// SettlementTrigger starts a background settlement for a league without waiting for it.
type SettlementTrigger interface {
	TriggerOpportunistic(league string)
}

type Generator struct {
	source  MatchSource
	store   TipWriter
	oracle  Oracle
	trigger SettlementTrigger
	log     *zap.Logger
	metrics *metricsService.Metrics
	cfg     config.GenerationConfig
	now     func() time.Time
}

func NewGenerator(source MatchSource, store TipWriter, oracle Oracle, trigger SettlementTrigger, log *zap.Logger, metrics *metricsService.Metrics, cfg config.GenerationConfig) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		source:  source,
		store:   store,
		oracle:  oracle,
		trigger: trigger,
		log:     log,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

type GenerationReport struct {
	League             string
	Upcoming           int
	AlreadyTipped      int
	EnrichmentFailures int
	OracleFailures     int
	NoPrice            int
	Created            []models.Tip
	Duplicates         int
	CreateFailures     int
	Accumulators       int
}

// enrichment is the outcome of one match's odds and head-to-head lookups.
// Each lookup fails independently.
type enrichment struct {
	match      models.Match
	odds       models.MarketOdds
	oddsErr    error
	headToHead []models.MatchResult
	h2hErr     error
}

// GenerateForLeague creates tips for the league's next fixtures that have none yet.
func (g *Generator) GenerateForLeague(ctx context.Context, league string) (GenerationReport, error) {
	report := GenerationReport{League: league}
	log := g.log.With(zap.String("league", league))

	upcoming, err := g.source.FetchUpcoming(ctx, league, g.cfg.UpcomingCount)
	if err != nil {
		return report, fmt.Errorf("upcoming fixtures for %s: %w", league, err)
	}
	report.Upcoming = len(upcoming)

	now := g.now()
	var fresh []models.Match
	for _, m := range upcoming {
		if m.Status != models.MatchScheduled || !m.KickOff.After(now) {
			continue
		}
		exists, err := g.store.HasTip(ctx, league, m.Source, m.MatchID)
		if err != nil {
			return report, err
		}
		if exists {
			report.AlreadyTipped++
			continue
		}
		fresh = append(fresh, m)
	}

	standings, err := g.source.FetchStandings(ctx, league)
	if err != nil {
		log.Warn("standings unavailable", zap.Error(err))
	}
	recent, err := g.source.FetchResults(ctx, league, g.cfg.RecentResults)
	if err != nil {
		log.Warn("recent results unavailable", zap.Error(err))
	} else if g.trigger != nil {
		g.trigger.TriggerOpportunistic(league)
	}

	if len(fresh) == 0 {
		return report, nil
	}

	var raws []tierService.RawPrediction
	for _, e := range g.enrich(ctx, fresh) {
		if e.h2hErr != nil {
			log.Debug("head to head unavailable", zap.String("match_id", e.match.MatchID), zap.Error(e.h2hErr))
		}
		if e.oddsErr != nil {
			report.EnrichmentFailures++
			log.Warn("odds unavailable, skipping match", zap.String("match_id", e.match.MatchID), zap.Error(e.oddsErr))
			continue
		}

		prediction, err := g.oracle.Predict(ctx, PredictionRequest{
			Match:         e.match,
			Odds:          e.odds,
			HeadToHead:    e.headToHead,
			Standings:     standings,
			RecentResults: recent,
		})
		if err != nil {
			report.OracleFailures++
			log.Warn("oracle failed", zap.String("match_id", e.match.MatchID), zap.Error(err))
			continue
		}

		price, ok := oddsService.ResolveOdds(e.odds, prediction.Prediction)
		if !ok {
			report.NoPrice++
			log.Info("no price for prediction, skipping",
				zap.String("match_id", e.match.MatchID),
				zap.String("code", prediction.Prediction),
			)
			continue
		}

		raws = append(raws, tierService.RawPrediction{
			MatchID:        e.match.MatchID,
			League:         league,
			HomeTeam:       e.match.HomeTeam,
			AwayTeam:       e.match.AwayTeam,
			PredictionCode: prediction.Prediction,
			Odds:           price,
			Confidence:     ClampConfidence(prediction.Confidence),
			Analysis:       prediction.Analysis,
		})
	}

	// one FetchUpcoming call, so match ids are unique within fresh
	byID := make(map[string]models.Match, len(fresh))
	for _, m := range fresh {
		byID[m.MatchID] = m
	}

	for _, p := range tierService.ClassifyAndBalance(raws) {
		tip := models.Tip{
			League:         p.League,
			Source:         byID[p.MatchID].Source,
			MatchID:        p.MatchID,
			HomeTeam:       p.HomeTeam,
			AwayTeam:       p.AwayTeam,
			MatchDate:      byID[p.MatchID].KickOff,
			PredictionCode: p.PredictionCode,
			Odds:           p.Odds,
			Confidence:     p.Confidence,
			Tier:           p.Tier,
			Status:         models.StatusPending,
			Analysis:       p.Analysis,
		}
		if err := g.store.CreateTip(ctx, &tip); err != nil {
			if errors.Is(err, storeService.ErrDuplicateTip) {
				report.Duplicates++
				continue
			}
			report.CreateFailures++
			log.Error("tip not created", zap.String("match_id", tip.MatchID), zap.Error(err))
			continue
		}
		report.Created = append(report.Created, tip)
		g.metrics.TipGenerated(league, string(tip.Tier))
	}

	for _, plan := range BuildAccumulators(report.Created) {
		acc := plan.Accumulator
		if err := g.store.CreateAccumulator(ctx, &acc, plan.Legs); err != nil {
			log.Error("accumulator not created", zap.Int("risk", acc.RiskLevel), zap.Error(err))
			continue
		}
		report.Accumulators++
	}

	log.Info("generation finished",
		zap.Int("upcoming", report.Upcoming),
		zap.Int("created", len(report.Created)),
		zap.Int("no_price", report.NoPrice),
		zap.Int("oracle_failures", report.OracleFailures),
		zap.Int("accumulators", report.Accumulators),
	)
	return report, nil
}

// enrich looks up odds and head-to-head for every match concurrently and waits
// for all of them. One lookup failing never cancels the others.
func (g *Generator) enrich(ctx context.Context, matches []models.Match) []enrichment {
	out := make([]enrichment, len(matches))
	sem := make(chan struct{}, enrichmentWorkers)
	var wg sync.WaitGroup

	for i, m := range matches {
		out[i].match = m
		wg.Add(2)
		go func(i int, m models.Match) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i].odds, out[i].oddsErr = g.source.FetchOdds(ctx, m)
		}(i, m)
		go func(i int, m models.Match) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i].headToHead, out[i].h2hErr = g.source.FetchHeadToHead(ctx, m, g.cfg.HeadToHeadLength)
		}(i, m)
	}
	wg.Wait()
	return out
}

func ClampConfidence(c int) int {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}
