package extService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"perfectTipsBot/models"
	"perfectTipsBot/services/common"
	"perfectTipsBot/services/metricsService"
)

var (
	// ErrProviderEnvelope is returned when a provider answers 2xx but reports an
	// error inside the payload.
	ErrProviderEnvelope = errors.New("provider reported an error")
	// ErrBothSourcesFailed wraps the joined primary and fallback errors.
	ErrBothSourcesFailed = errors.New("primary and fallback sources failed")
	ErrUnknownLeague     = errors.New("league not configured for provider")
	// ErrMatchNotFound means a source has no fixture for the given teams on the kickoff day.
	ErrMatchNotFound = errors.New("match not found on source")
)

// Source is one upstream football data provider, normalised to the engine's models.
// Match ids passed to a Source are always in that source's own id space.
type Source interface {
	Name() string
	FetchUpcoming(ctx context.Context, league string, count int) ([]models.Match, error)
	FetchResults(ctx context.Context, league string, count int) ([]models.MatchResult, error)
	FetchOdds(ctx context.Context, matchID string) (models.MarketOdds, error)
	FetchStandings(ctx context.Context, league string) ([]models.Standing, error)
	FetchHeadToHead(ctx context.Context, match models.Match, last int) ([]models.MatchResult, error)
	FetchMatchExtras(ctx context.Context, matchID string) (*models.MatchExtras, error)
	// FindMatch looks up the fixture another source calls ref, by league,
	// kickoff day and team pair.
	FindMatch(ctx context.Context, ref models.Match) (models.Match, error)
}

// Gateway tries the primary source and, on any error, the fallback once.
// Failover is decided per call; nothing about a failure is remembered.
type Gateway struct {
	primary  Source
	fallback Source
	log      *zap.Logger
	metrics  *metricsService.Metrics
}

func NewGateway(primary, fallback Source, log *zap.Logger, metrics *metricsService.Metrics) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{primary: primary, fallback: fallback, log: log, metrics: metrics}
}

func withFallback[T any](ctx context.Context, g *Gateway, op string, call func(ctx context.Context, src Source) (T, error)) (T, error) {
	res, primaryErr := call(ctx, g.primary)
	if primaryErr == nil {
		return res, nil
	}
	g.metrics.ProviderError(g.primary.Name(), op)

	var zero T
	if g.fallback == nil || ctx.Err() != nil {
		return zero, fmt.Errorf("%s: %w", op, primaryErr)
	}

	g.log.Warn("primary source failed, trying fallback",
		zap.String("op", op),
		zap.String("source", g.primary.Name()),
		zap.Error(primaryErr),
	)
	g.metrics.Failover(op)

	res, fallbackErr := call(ctx, g.fallback)
	if fallbackErr == nil {
		return res, nil
	}
	g.metrics.ProviderError(g.fallback.Name(), op)

	return zero, fmt.Errorf("%s: %w: %w", op, ErrBothSourcesFailed, errors.Join(primaryErr, fallbackErr))
}

func (g *Gateway) FetchUpcoming(ctx context.Context, league string, count int) ([]models.Match, error) {
	return withFallback(ctx, g, "fetch_upcoming", func(ctx context.Context, src Source) ([]models.Match, error) {
		return src.FetchUpcoming(ctx, league, count)
	})
}

func (g *Gateway) FetchResults(ctx context.Context, league string, count int) ([]models.MatchResult, error) {
	return withFallback(ctx, g, "fetch_results", func(ctx context.Context, src Source) ([]models.MatchResult, error) {
		return src.FetchResults(ctx, league, count)
	})
}

func (g *Gateway) FetchOdds(ctx context.Context, match models.Match) (models.MarketOdds, error) {
	return withFallback(ctx, g, "fetch_odds", func(ctx context.Context, src Source) (models.MarketOdds, error) {
		local, err := localMatch(ctx, src, match)
		if err != nil {
			return models.MarketOdds{}, err
		}
		odds, err := src.FetchOdds(ctx, local.MatchID)
		if err != nil {
			return models.MarketOdds{}, err
		}
		odds.MatchID = match.MatchID
		return odds, nil
	})
}

func (g *Gateway) FetchStandings(ctx context.Context, league string) ([]models.Standing, error) {
	return withFallback(ctx, g, "fetch_standings", func(ctx context.Context, src Source) ([]models.Standing, error) {
		return src.FetchStandings(ctx, league)
	})
}

func (g *Gateway) FetchHeadToHead(ctx context.Context, match models.Match, last int) ([]models.MatchResult, error) {
	return withFallback(ctx, g, "fetch_head_to_head", func(ctx context.Context, src Source) ([]models.MatchResult, error) {
		local, err := localMatch(ctx, src, match)
		if err != nil {
			return nil, err
		}
		return src.FetchHeadToHead(ctx, local, last)
	})
}

func (g *Gateway) FetchMatchExtras(ctx context.Context, match models.Match) (*models.MatchExtras, error) {
	return withFallback(ctx, g, "fetch_match_extras", func(ctx context.Context, src Source) (*models.MatchExtras, error) {
		local, err := localMatch(ctx, src, match)
		if err != nil {
			return nil, err
		}
		return src.FetchMatchExtras(ctx, local.MatchID)
	})
}

// localMatch returns ref as src knows it. An id issued by another source is
// never sent to src; the fixture is looked up by teams and kickoff day instead.
func localMatch(ctx context.Context, src Source, ref models.Match) (models.Match, error) {
	if ref.Source == src.Name() {
		return ref, nil
	}
	local, err := src.FindMatch(ctx, ref)
	if err != nil {
		return models.Match{}, fmt.Errorf("resolve %s match %s on %s: %w", ref.Source, ref.MatchID, src.Name(), err)
	}
	return local, nil
}

// pickByPair finds ref among a source's fixtures for the same day.
func pickByPair(candidates []models.MatchResult, ref models.Match) (models.Match, error) {
	want := common.PairKey(ref.HomeTeam, ref.AwayTeam, ref.KickOff.UTC().Format(time.DateOnly))
	for _, c := range candidates {
		if common.PairKey(c.HomeTeam, c.AwayTeam, c.KickOff.UTC().Format(time.DateOnly)) == want {
			return c.Match, nil
		}
	}
	return models.Match{}, fmt.Errorf("%w: %s v %s on %s", ErrMatchNotFound, ref.HomeTeam, ref.AwayTeam, ref.KickOff.UTC().Format(time.DateOnly))
}
