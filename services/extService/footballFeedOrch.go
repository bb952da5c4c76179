package extService

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"perfectTipsBot/config"
	"perfectTipsBot/models"
	"perfectTipsBot/models/external"
	"perfectTipsBot/services/common"
)

const footballFeedName = "football-feed"

// resultsWindow bounds how far back the feed is asked for finished matches.
const resultsWindow = 21 * 24 * time.Hour

// FootballFeed is the fallback source. Its match ids differ from the primary's;
// results carry the source name so callers never mix the two id spaces.
type FootballFeed struct {
	baseURL string
	apiKey  string
	leagues map[string]config.LeagueRef
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewFootballFeed(cfg config.ProviderConfig, leagues map[string]config.LeagueRef, opts ...Option) *FootballFeed {
	o := buildOptions(cfg, opts)
	return &FootballFeed{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		leagues: leagues,
		client:  o.httpClient,
		limiter: o.limiter,
		now:     time.Now,
	}
}

func (f *FootballFeed) Name() string { return footballFeedName }

type feedErrorer interface {
	feedError() external.FootballFeed_Error
}

type feedMatches struct{ external.FootballFeed_Matches }

func (m *feedMatches) feedError() external.FootballFeed_Error { return m.FootballFeed_Error }

type feedMatchDetail struct {
	external.FootballFeed_MatchDetail
}

func (m *feedMatchDetail) feedError() external.FootballFeed_Error { return m.FootballFeed_Error }

type feedOdds struct{ external.FootballFeed_Odds }

func (m *feedOdds) feedError() external.FootballFeed_Error { return m.FootballFeed_Error }

type feedStandings struct {
	external.FootballFeed_Standings
}

func (m *feedStandings) feedError() external.FootballFeed_Error { return m.FootballFeed_Error }

func (f *FootballFeed) get(ctx context.Context, path string, params url.Values, out feedErrorer) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	requestUrl := f.baseURL + path
	if len(params) > 0 {
		requestUrl += "?" + params.Encode()
	}

	resp, err := common.ProviderWrapper(ctx, f.client, requestUrl, map[string]string{"X-Auth-Token": f.apiKey})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if e := out.feedError(); e.ErrorCode != 0 || e.Message != "" {
		return fmt.Errorf("%w: %s: %d %s", ErrProviderEnvelope, path, e.ErrorCode, e.Message)
	}
	return nil
}

func (f *FootballFeed) league(slug string) (config.LeagueRef, error) {
	ref, ok := f.leagues[slug]
	if !ok || ref.FallbackCode == "" {
		return config.LeagueRef{}, fmt.Errorf("%w: %s has no %s code", ErrUnknownLeague, slug, footballFeedName)
	}
	return ref, nil
}

func (f *FootballFeed) FetchUpcoming(ctx context.Context, league string, count int) ([]models.Match, error) {
	ref, err := f.league(league)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("status", "SCHEDULED")

	var payload feedMatches
	if err := f.get(ctx, "/competitions/"+ref.FallbackCode+"/matches", params, &payload); err != nil {
		return nil, err
	}

	sort.SliceStable(payload.Matches, func(i, j int) bool {
		return payload.Matches[i].UtcDate.Before(payload.Matches[j].UtcDate)
	})
	matches := make([]models.Match, 0, count)
	for _, m := range payload.Matches {
		if len(matches) == count {
			break
		}
		matches = append(matches, footballFeedResult(league, m).Match)
	}
	return matches, nil
}

// FetchResults returns the most recent non-scheduled matches, newest first.
func (f *FootballFeed) FetchResults(ctx context.Context, league string, count int) ([]models.MatchResult, error) {
	ref, err := f.league(league)
	if err != nil {
		return nil, err
	}
	now := f.now().UTC()
	params := url.Values{}
	params.Set("dateFrom", now.Add(-resultsWindow).Format(time.DateOnly))
	params.Set("dateTo", now.Format(time.DateOnly))

	var payload feedMatches
	if err := f.get(ctx, "/competitions/"+ref.FallbackCode+"/matches", params, &payload); err != nil {
		return nil, err
	}

	sort.SliceStable(payload.Matches, func(i, j int) bool {
		return payload.Matches[i].UtcDate.After(payload.Matches[j].UtcDate)
	})
	results := make([]models.MatchResult, 0, count)
	for _, m := range payload.Matches {
		if len(results) == count {
			break
		}
		r := footballFeedResult(league, m)
		if r.Status == models.MatchScheduled {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func (f *FootballFeed) FindMatch(ctx context.Context, ref models.Match) (models.Match, error) {
	leagueRef, err := f.league(ref.League)
	if err != nil {
		return models.Match{}, err
	}
	day := ref.KickOff.UTC().Format(time.DateOnly)
	params := url.Values{}
	params.Set("dateFrom", day)
	params.Set("dateTo", day)

	var payload feedMatches
	if err := f.get(ctx, "/competitions/"+leagueRef.FallbackCode+"/matches", params, &payload); err != nil {
		return models.Match{}, err
	}
	candidates := make([]models.MatchResult, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		candidates = append(candidates, footballFeedResult(ref.League, m))
	}
	return pickByPair(candidates, ref)
}

func (f *FootballFeed) FetchHeadToHead(ctx context.Context, match models.Match, last int) ([]models.MatchResult, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(last))

	var payload feedMatches
	if err := f.get(ctx, "/matches/"+url.PathEscape(match.MatchID)+"/head2head", params, &payload); err != nil {
		return nil, err
	}
	results := make([]models.MatchResult, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		results = append(results, footballFeedResult(match.League, m))
	}
	return results, nil
}

func (f *FootballFeed) FetchOdds(ctx context.Context, matchID string) (models.MarketOdds, error) {
	var payload feedOdds
	if err := f.get(ctx, "/matches/"+url.PathEscape(matchID)+"/odds", nil, &payload); err != nil {
		return models.MarketOdds{}, err
	}
	if len(payload.Markets) == 0 {
		return models.MarketOdds{}, fmt.Errorf("%w: no markets for %s", ErrProviderEnvelope, matchID)
	}

	odds := models.MarketOdds{MatchID: matchID, Bookmaker: payload.Bookmaker}
	for _, market := range payload.Markets {
		values := make([]models.OddValue, 0, len(market.Outcomes))
		for _, o := range market.Outcomes {
			values = append(values, models.OddValue{Label: o.Name, Odd: o.Price})
		}
		switch market.Key {
		case "1x2":
			odds.MatchWinner = values
		case "totals":
			odds.OverUnder = values
		case "btts":
			odds.BothTeamsScore = values
		case "double_chance":
			odds.DoubleChance = values
		case "corners":
			odds.CornersOverUnder = values
		case "cards":
			odds.CardsOverUnder = values
		}
	}
	return odds, nil
}

func (f *FootballFeed) FetchStandings(ctx context.Context, league string) ([]models.Standing, error) {
	ref, err := f.league(league)
	if err != nil {
		return nil, err
	}

	var payload feedStandings
	if err := f.get(ctx, "/competitions/"+ref.FallbackCode+"/standings", nil, &payload); err != nil {
		return nil, err
	}

	for _, table := range payload.Standings {
		if table.Type != "TOTAL" {
			continue
		}
		standings := make([]models.Standing, 0, len(table.Table))
		for _, row := range table.Table {
			form := ""
			if row.Form != nil {
				form = strings.ReplaceAll(*row.Form, ",", "")
			}
			standings = append(standings, models.Standing{
				Rank:         row.Position,
				Team:         teamName(row.Team),
				Played:       row.PlayedGames,
				Points:       row.Points,
				GoalsFor:     row.GoalsFor,
				GoalsAgainst: row.GoalsAgainst,
				Form:         form,
			})
		}
		return standings, nil
	}
	return nil, fmt.Errorf("%w: no total table for %s", ErrProviderEnvelope, league)
}

func (f *FootballFeed) FetchMatchExtras(ctx context.Context, matchID string) (*models.MatchExtras, error) {
	var payload feedMatchDetail
	if err := f.get(ctx, "/matches/"+url.PathEscape(matchID), nil, &payload); err != nil {
		return nil, err
	}
	stats := payload.Statistics
	if stats == nil {
		return nil, nil
	}
	return &models.MatchExtras{
		Corners: sumGoals(stats.Corners),
		Cards:   addPtr(sumGoals(stats.YellowCards), sumGoals(stats.RedCards)),
	}, nil
}

func sumGoals(g external.FootballFeed_Goals) *int {
	return addPtr(g.Home, g.Away)
}

// addPtr is nil only when both sides are nil.
func addPtr(a, b *int) *int {
	if a == nil && b == nil {
		return nil
	}
	total := 0
	if a != nil {
		total += *a
	}
	if b != nil {
		total += *b
	}
	return &total
}

func teamName(t external.FootballFeed_Team) string {
	return common.FirstNonEmpty(t.ShortName, t.Name, t.TLA)
}

var footballFeedStatuses = map[string]models.MatchStatus{
	"SCHEDULED": models.MatchScheduled,
	"TIMED":     models.MatchScheduled,

	"IN_PLAY": models.MatchInPlay,
	"PAUSED":  models.MatchInPlay,
	"LIVE":    models.MatchInPlay,

	"FINISHED": models.MatchFinished,

	"POSTPONED": models.MatchPostponed,
	"SUSPENDED": models.MatchPostponed,

	"CANCELLED": models.MatchAbandoned,
	"AWARDED":   models.MatchAbandoned,
	"ABANDONED": models.MatchAbandoned,
}

func footballFeedStatus(status string) models.MatchStatus {
	if s, ok := footballFeedStatuses[strings.ToUpper(strings.TrimSpace(status))]; ok {
		return s
	}
	return models.MatchScheduled
}

// footballFeedResult prefers the regular time score when the match went beyond 90 minutes.
func footballFeedResult(league string, m external.FootballFeed_Match) models.MatchResult {
	result := models.MatchResult{
		Match: models.Match{
			Source:     footballFeedName,
			MatchID:    strconv.Itoa(m.ID),
			League:     league,
			HomeTeam:   teamName(m.HomeTeam),
			AwayTeam:   teamName(m.AwayTeam),
			HomeTeamID: strconv.Itoa(m.HomeTeam.ID),
			AwayTeamID: strconv.Itoa(m.AwayTeam.ID),
			KickOff:    m.UtcDate.UTC(),
			Status:     footballFeedStatus(m.Status),
		},
	}
	score := m.Score.FullTime
	if m.Score.RegularTime != nil && m.Score.RegularTime.Home != nil && m.Score.RegularTime.Away != nil {
		score = *m.Score.RegularTime
	}
	result.GoalsHome, result.GoalsAway = score.Home, score.Away
	return result
}
