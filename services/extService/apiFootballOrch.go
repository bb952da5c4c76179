package extService

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"perfectTipsBot/config"
	"perfectTipsBot/models"
	"perfectTipsBot/models/external"
	"perfectTipsBot/services/common"
	"perfectTipsBot/services/oddsService"
)

const apiFootballName = "api-football"

// APIFootball is the primary source, speaking the API-Football v3 envelope.
type APIFootball struct {
	baseURL string
	apiKey  string
	leagues map[string]config.LeagueRef
	client  *http.Client
	limiter *rate.Limiter
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

func WithRateLimiter(l *rate.Limiter) Option {
	return func(o *clientOptions) { o.limiter = l }
}

func buildOptions(cfg config.ProviderConfig, opts []Option) clientOptions {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		o.httpClient = &http.Client{Timeout: timeout}
	}
	if o.limiter == nil {
		limit := rate.Inf
		if cfg.RateLimit > 0 {
			limit = rate.Limit(cfg.RateLimit)
		}
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(limit, burst)
	}
	return o
}

func NewAPIFootball(cfg config.ProviderConfig, leagues map[string]config.LeagueRef, opts ...Option) *APIFootball {
	o := buildOptions(cfg, opts)
	return &APIFootball{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		leagues: leagues,
		client:  o.httpClient,
		limiter: o.limiter,
	}
}

func (a *APIFootball) Name() string { return apiFootballName }

// get fetches path and decodes the envelope's response into out.
func (a *APIFootball) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	requestUrl := a.baseURL + path
	if len(params) > 0 {
		requestUrl += "?" + params.Encode()
	}

	resp, err := common.ProviderWrapper(ctx, a.client, requestUrl, map[string]string{"x-apisports-key": a.apiKey})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope external.APIFootball_Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if envelopeHasErrors(envelope.Errors) {
		return fmt.Errorf("%w: %s: %s", ErrProviderEnvelope, path, string(envelope.Errors))
	}
	if len(envelope.Response) == 0 {
		return fmt.Errorf("%w: %s: empty response", ErrProviderEnvelope, path)
	}
	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// envelopeHasErrors treats [], {} and null as "no errors".
func envelopeHasErrors(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "[]", "{}":
		return false
	}
	return true
}

func (a *APIFootball) league(slug string) (config.LeagueRef, error) {
	ref, ok := a.leagues[slug]
	if !ok || ref.PrimaryID == 0 {
		return config.LeagueRef{}, fmt.Errorf("%w: %s has no %s id", ErrUnknownLeague, slug, apiFootballName)
	}
	return ref, nil
}

func (a *APIFootball) fixtures(ctx context.Context, league string, params url.Values) ([]models.MatchResult, error) {
	var fixtures []external.APIFootball_Fixture
	if err := a.get(ctx, "/fixtures", params, &fixtures); err != nil {
		return nil, err
	}
	results := make([]models.MatchResult, 0, len(fixtures))
	for _, f := range fixtures {
		results = append(results, apiFootballResult(league, f))
	}
	return results, nil
}

func (a *APIFootball) FetchUpcoming(ctx context.Context, league string, count int) ([]models.Match, error) {
	ref, err := a.league(league)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("league", strconv.Itoa(ref.PrimaryID))
	params.Set("season", strconv.Itoa(ref.Season))
	params.Set("next", strconv.Itoa(count))

	results, err := a.fixtures(ctx, league, params)
	if err != nil {
		return nil, err
	}
	matches := make([]models.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, r.Match)
	}
	return matches, nil
}

func (a *APIFootball) FetchResults(ctx context.Context, league string, count int) ([]models.MatchResult, error) {
	ref, err := a.league(league)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("league", strconv.Itoa(ref.PrimaryID))
	params.Set("season", strconv.Itoa(ref.Season))
	params.Set("last", strconv.Itoa(count))
	return a.fixtures(ctx, league, params)
}

func (a *APIFootball) FindMatch(ctx context.Context, ref models.Match) (models.Match, error) {
	leagueRef, err := a.league(ref.League)
	if err != nil {
		return models.Match{}, err
	}
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueRef.PrimaryID))
	params.Set("season", strconv.Itoa(leagueRef.Season))
	params.Set("date", ref.KickOff.UTC().Format(time.DateOnly))

	candidates, err := a.fixtures(ctx, ref.League, params)
	if err != nil {
		return models.Match{}, err
	}
	return pickByPair(candidates, ref)
}

func (a *APIFootball) FetchHeadToHead(ctx context.Context, match models.Match, last int) ([]models.MatchResult, error) {
	if match.HomeTeamID == "" || match.AwayTeamID == "" {
		return nil, fmt.Errorf("head to head for %s: missing team ids", match.MatchID)
	}
	params := url.Values{}
	params.Set("h2h", match.HomeTeamID+"-"+match.AwayTeamID)
	params.Set("last", strconv.Itoa(last))

	var fixtures []external.APIFootball_Fixture
	if err := a.get(ctx, "/fixtures/headtohead", params, &fixtures); err != nil {
		return nil, err
	}
	results := make([]models.MatchResult, 0, len(fixtures))
	for _, f := range fixtures {
		results = append(results, apiFootballResult(match.League, f))
	}
	return results, nil
}

func (a *APIFootball) FetchOdds(ctx context.Context, matchID string) (models.MarketOdds, error) {
	params := url.Values{}
	params.Set("fixture", matchID)

	var entries []external.APIFootball_OddsEntry
	if err := a.get(ctx, "/odds", params, &entries); err != nil {
		return models.MarketOdds{}, err
	}

	var candidates []models.MarketOdds
	for _, entry := range entries {
		for _, bm := range entry.Bookmakers {
			odds := models.MarketOdds{MatchID: matchID, Bookmaker: bm.Name}
			for _, bet := range bm.Bets {
				values := make([]models.OddValue, 0, len(bet.Values))
				for _, v := range bet.Values {
					price, err := strconv.ParseFloat(strings.TrimSpace(v.Odd), 64)
					if err != nil {
						continue
					}
					values = append(values, models.OddValue{Label: v.Value, Odd: price})
				}
				assignMarket(&odds, bet.Name, values)
			}
			candidates = append(candidates, odds)
		}
	}

	picked, err := oddsService.PickBookmaker(candidates)
	if err != nil {
		return models.MarketOdds{}, fmt.Errorf("odds for %s: %w", matchID, err)
	}
	return *picked, nil
}

func assignMarket(odds *models.MarketOdds, betName string, values []models.OddValue) {
	switch strings.ToLower(strings.TrimSpace(betName)) {
	case "match winner":
		odds.MatchWinner = values
	case "goals over/under":
		odds.OverUnder = values
	case "both teams score":
		odds.BothTeamsScore = values
	case "double chance":
		odds.DoubleChance = values
	case "corners over under", "corners over/under":
		odds.CornersOverUnder = values
	case "cards over/under", "cards over under":
		odds.CardsOverUnder = values
	}
}

func (a *APIFootball) FetchStandings(ctx context.Context, league string) ([]models.Standing, error) {
	ref, err := a.league(league)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("league", strconv.Itoa(ref.PrimaryID))
	params.Set("season", strconv.Itoa(ref.Season))

	var payload []external.APIFootball_Standings
	if err := a.get(ctx, "/standings", params, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 || len(payload[0].League.Standings) == 0 {
		return nil, fmt.Errorf("%w: no standings for %s", ErrProviderEnvelope, league)
	}

	rows := payload[0].League.Standings[0]
	standings := make([]models.Standing, 0, len(rows))
	for _, row := range rows {
		standings = append(standings, models.Standing{
			Rank:         row.Rank,
			Team:         row.Team.Name,
			Played:       row.All.Played,
			Points:       row.Points,
			GoalsFor:     row.All.Goals.For,
			GoalsAgainst: row.All.Goals.Against,
			Form:         row.Form,
		})
	}
	return standings, nil
}

// FetchMatchExtras sums both teams' corner kicks and cards. A nil result with a
// nil error means the provider has no statistics for the fixture yet.
func (a *APIFootball) FetchMatchExtras(ctx context.Context, matchID string) (*models.MatchExtras, error) {
	params := url.Values{}
	params.Set("fixture", matchID)

	var teams []external.APIFootball_TeamStatistics
	if err := a.get(ctx, "/fixtures/statistics", params, &teams); err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, nil
	}

	var corners, cards *int
	add := func(total **int, v int) {
		if *total == nil {
			*total = new(int)
		}
		**total += v
	}
	for _, team := range teams {
		for _, stat := range team.Statistics {
			v, ok := statValue(stat.Value)
			if !ok {
				continue
			}
			switch stat.Type {
			case "Corner Kicks":
				add(&corners, v)
			case "Yellow Cards", "Red Cards":
				add(&cards, v)
			}
		}
	}
	if corners == nil && cards == nil {
		return nil, nil
	}
	return &models.MatchExtras{Corners: corners, Cards: cards}, nil
}

// statValue reads a statistic that may be a number, a numeric string or null.
func statValue(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// apiFootballStatuses maps the provider's short codes onto the shared status
// set. Suspended fixtures are postponed, not abandoned, on both sources.
var apiFootballStatuses = map[string]models.MatchStatus{
	"TBD": models.MatchScheduled,
	"NS":  models.MatchScheduled,

	"1H":   models.MatchInPlay,
	"HT":   models.MatchInPlay,
	"2H":   models.MatchInPlay,
	"ET":   models.MatchInPlay,
	"BT":   models.MatchInPlay,
	"P":    models.MatchInPlay,
	"LIVE": models.MatchInPlay,
	"INT":  models.MatchInPlay,

	"FT":  models.MatchFinished,
	"AET": models.MatchFinished,
	"PEN": models.MatchFinished,

	"PST":  models.MatchPostponed,
	"SUSP": models.MatchPostponed,

	"CANC": models.MatchAbandoned,
	"ABD":  models.MatchAbandoned,
	"AWD":  models.MatchAbandoned,
	"WO":   models.MatchAbandoned,
}

func apiFootballStatus(short string) models.MatchStatus {
	if status, ok := apiFootballStatuses[strings.ToUpper(strings.TrimSpace(short))]; ok {
		return status
	}
	return models.MatchScheduled
}

// apiFootballResult settles on the 90 minute score when the provider reports one,
// so extra time and penalties never change a tip's outcome.
func apiFootballResult(league string, f external.APIFootball_Fixture) models.MatchResult {
	result := models.MatchResult{
		Match: models.Match{
			Source:     apiFootballName,
			MatchID:    strconv.Itoa(f.Fixture.ID),
			League:     league,
			HomeTeam:   f.Teams.Home.Name,
			AwayTeam:   f.Teams.Away.Name,
			HomeTeamID: strconv.Itoa(f.Teams.Home.ID),
			AwayTeamID: strconv.Itoa(f.Teams.Away.ID),
			KickOff:    f.Fixture.Date.UTC(),
			Status:     apiFootballStatus(f.Fixture.Status.Short),
		},
	}
	if f.Score.Fulltime.Home != nil && f.Score.Fulltime.Away != nil {
		result.GoalsHome, result.GoalsAway = f.Score.Fulltime.Home, f.Score.Fulltime.Away
	} else {
		result.GoalsHome, result.GoalsAway = f.Goals.Home, f.Goals.Away
	}
	return result
}
