package extService

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"perfectTipsBot/config"
	"perfectTipsBot/models"
)

var testLeagues = map[string]config.LeagueRef{
	"serie-a": {PrimaryID: 135, Season: 2026, FallbackCode: "SA"},
}

func newAPIFootball(t *testing.T, handler http.HandlerFunc) *APIFootball {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPIFootball(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k1"}, testLeagues)
}

func newFootballFeed(t *testing.T, handler http.HandlerFunc) *FootballFeed {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	feed := NewFootballFeed(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k2"}, testLeagues)
	feed.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	return feed
}

const apiFootballFixtures = `{
  "errors": [],
  "results": 3,
  "response": [
    {"fixture": {"id": 1001, "date": "2026-10-11T18:45:00+00:00", "status": {"short": "AET"}},
     "teams": {"home": {"id": 489, "name": "AC Milan"}, "away": {"id": 505, "name": "Inter"}},
     "goals": {"home": 2, "away": 2},
     "score": {"fulltime": {"home": 1, "away": 1}}},
    {"fixture": {"id": 1002, "date": "2026-10-11T16:00:00+00:00", "status": {"short": "FT"}},
     "teams": {"home": {"id": 496, "name": "Juventus"}, "away": {"id": 492, "name": "Napoli"}},
     "goals": {"home": 3, "away": 0},
     "score": {"fulltime": {"home": null, "away": null}}},
    {"fixture": {"id": 1003, "date": "2026-10-12T16:00:00+00:00", "status": {"short": "ABD"}},
     "teams": {"home": {"id": 497, "name": "Roma"}, "away": {"id": 487, "name": "Lazio"}},
     "goals": {"home": null, "away": null},
     "score": {"fulltime": {"home": null, "away": null}}}
  ]
}`

func TestAPIFootball_FetchResults(t *testing.T) {
	client := newAPIFootball(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-apisports-key") != "k1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/fixtures" || r.URL.Query().Get("league") != "135" || r.URL.Query().Get("last") != "3" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(apiFootballFixtures))
	})

	results, err := client.FetchResults(context.Background(), "serie-a", 3)
	if err != nil {
		t.Fatalf("FetchResults: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	tests := []struct {
		name     string
		got      models.MatchResult
		id       string
		status   models.MatchStatus
		score    string
		hasScore bool
	}{
		{"extra time settles on 90 minutes", results[0], "1001", models.MatchFinished, "1-1", true},
		{"goals used without fulltime", results[1], "1002", models.MatchFinished, "3-0", true},
		{"abandoned has no score", results[2], "1003", models.MatchAbandoned, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.MatchID != tt.id || tt.got.Status != tt.status || tt.got.League != "serie-a" {
				t.Errorf("got %+v", tt.got.Match)
			}
			if tt.hasScore != (tt.got.GoalsHome != nil && tt.got.GoalsAway != nil) {
				t.Fatalf("score presence mismatch")
			}
			if tt.hasScore {
				if got := formatGoals(tt.got); got != tt.score {
					t.Errorf("score = %s, want %s", got, tt.score)
				}
			}
		})
	}
}

func formatGoals(r models.MatchResult) string {
	return string(rune('0'+*r.GoalsHome)) + "-" + string(rune('0'+*r.GoalsAway))
}

func TestAPIFootball_EnvelopeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"empty array", `{"errors": [], "results": 0, "response": []}`, false},
		{"empty object", `{"errors": {}, "results": 0, "response": []}`, false},
		{"keyed error", `{"errors": {"token": "Error/Missing application key"}, "results": 0, "response": []}`, true},
		{"rate limit", `{"errors": {"requests": "You have reached the request limit for the day"}, "response": []}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newAPIFootball(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.FetchResults(context.Background(), "serie-a", 5)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrProviderEnvelope) {
				t.Errorf("expected ErrProviderEnvelope, got %v", err)
			}
		})
	}
}

func TestAPIFootball_UnknownLeague(t *testing.T) {
	client := newAPIFootball(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	if _, err := client.FetchResults(context.Background(), "eredivisie", 5); !errors.Is(err, ErrUnknownLeague) {
		t.Fatalf("expected ErrUnknownLeague, got %v", err)
	}
}

func TestAPIFootball_FetchOdds(t *testing.T) {
	client := newAPIFootball(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [], "response": [{"fixture": {"id": 7}, "bookmakers": [
			{"id": 99, "name": "Obscure", "bets": [{"name": "Match Winner", "values": [{"value": "Home", "odd": "1.50"}]}]},
			{"id": 8, "name": "Bet365", "bets": [
				{"name": "Match Winner", "values": [{"value": "Home", "odd": "1.90"}, {"value": "Draw", "odd": "3.40"}, {"value": "Away", "odd": "4.20"}]},
				{"name": "Goals Over/Under", "values": [{"value": "Over 2.5", "odd": "1.85"}, {"value": "Under 2.5", "odd": "n/a"}]},
				{"name": "Both Teams Score", "values": [{"value": "Yes", "odd": "1.70"}]}
			]}
		]}]}`))
	})

	odds, err := client.FetchOdds(context.Background(), "7")
	if err != nil {
		t.Fatalf("FetchOdds: %v", err)
	}
	if odds.Bookmaker != "Bet365" {
		t.Errorf("bookmaker = %s, want Bet365", odds.Bookmaker)
	}
	if len(odds.MatchWinner) != 3 || odds.MatchWinner[0].Odd != 1.90 {
		t.Errorf("match winner = %+v", odds.MatchWinner)
	}
	if len(odds.OverUnder) != 1 {
		t.Errorf("unparseable price should be dropped, got %+v", odds.OverUnder)
	}
}

func TestAPIFootball_FetchMatchExtras(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantNil     bool
		wantCorners int
		wantCards   int
	}{
		{
			name: "sums both teams",
			body: `{"errors": [], "response": [
				{"team": {"id": 1}, "statistics": [{"type": "Corner Kicks", "value": 6}, {"type": "Yellow Cards", "value": 2}, {"type": "Red Cards", "value": null}, {"type": "Ball Possession", "value": "55%"}]},
				{"team": {"id": 2}, "statistics": [{"type": "Corner Kicks", "value": "4"}, {"type": "Yellow Cards", "value": 3}, {"type": "Red Cards", "value": 1}]}
			]}`,
			wantCorners: 10,
			wantCards:   6,
		},
		{
			name:    "no statistics yet",
			body:    `{"errors": [], "response": []}`,
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newAPIFootball(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			extras, err := client.FetchMatchExtras(context.Background(), "1")
			if err != nil {
				t.Fatalf("FetchMatchExtras: %v", err)
			}
			if tt.wantNil {
				if extras != nil {
					t.Errorf("expected nil extras, got %+v", extras)
				}
				return
			}
			if extras == nil || *extras.Corners != tt.wantCorners || *extras.Cards != tt.wantCards {
				t.Errorf("extras = %+v", extras)
			}
		})
	}
}

func TestFootballFeed_FetchResults(t *testing.T) {
	feed := newFootballFeed(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != "k2" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/competitions/SA/matches" || r.URL.Query().Get("dateTo") != "2026-10-15" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"matches": [
			{"id": 5, "utcDate": "2026-10-01T18:45:00Z", "status": "FINISHED",
			 "homeTeam": {"id": 98, "name": "AC Milan", "shortName": "Milan", "tla": "MIL"},
			 "awayTeam": {"id": 108, "name": "FC Internazionale Milano", "shortName": "", "tla": "INT"},
			 "score": {"duration": "REGULAR", "fullTime": {"home": 2, "away": 1}}},
			{"id": 6, "utcDate": "2026-10-11T18:45:00Z", "status": "FINISHED",
			 "homeTeam": {"id": 1, "name": "", "shortName": "", "tla": "ROM"},
			 "awayTeam": {"id": 2, "name": "Lazio", "shortName": "Lazio", "tla": "LAZ"},
			 "score": {"duration": "EXTRA_TIME", "fullTime": {"home": 3, "away": 2}, "regularTime": {"home": 1, "away": 1}}},
			{"id": 7, "utcDate": "2026-10-20T18:45:00Z", "status": "SCHEDULED",
			 "homeTeam": {"id": 3, "name": "Napoli"}, "awayTeam": {"id": 4, "name": "Torino"},
			 "score": {"fullTime": {"home": null, "away": null}}},
			{"id": 8, "utcDate": "2026-10-12T18:45:00Z", "status": "CANCELLED",
			 "homeTeam": {"id": 5, "name": "Genoa"}, "awayTeam": {"id": 6, "name": "Empoli"},
			 "score": {"fullTime": {"home": null, "away": null}}}
		]}`))
	})

	results, err := feed.FetchResults(context.Background(), "serie-a", 10)
	if err != nil {
		t.Fatalf("FetchResults: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (scheduled dropped)", len(results))
	}

	if results[0].MatchID != "8" || results[0].Status != models.MatchAbandoned {
		t.Errorf("newest first: got %+v", results[0].Match)
	}
	if results[1].HomeTeam != "ROM" || *results[1].GoalsHome != 1 || *results[1].GoalsAway != 1 {
		t.Errorf("regular time score or tla fallback wrong: %+v", results[1])
	}
	if results[2].HomeTeam != "Milan" || results[2].AwayTeam != "FC Internazionale Milano" {
		t.Errorf("team name preference wrong: %s v %s", results[2].HomeTeam, results[2].AwayTeam)
	}
}

func TestFootballFeed_ErrorBody(t *testing.T) {
	feed := newFootballFeed(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorCode": 429, "message": "You reached your request limit."}`))
	})
	if _, err := feed.FetchStandings(context.Background(), "serie-a"); !errors.Is(err, ErrProviderEnvelope) {
		t.Fatalf("expected ErrProviderEnvelope, got %v", err)
	}
}

func TestFootballFeed_FetchMatchExtras(t *testing.T) {
	feed := newFootballFeed(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 6, "status": "FINISHED", "statistics": {
			"corners": {"home": 7, "away": 3},
			"yellowCards": {"home": 2, "away": 2},
			"redCards": {"home": null, "away": null}
		}}`))
	})
	extras, err := feed.FetchMatchExtras(context.Background(), "6")
	if err != nil {
		t.Fatalf("FetchMatchExtras: %v", err)
	}
	if *extras.Corners != 10 || *extras.Cards != 4 {
		t.Errorf("extras = corners %d cards %d", *extras.Corners, *extras.Cards)
	}
}

func TestGateway_FallsBackOnPrimaryStatus(t *testing.T) {
	primary := newAPIFootball(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	fallback := newFootballFeed(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"standings": [
			{"type": "HOME", "table": []},
			{"type": "TOTAL", "table": [{"position": 1, "team": {"name": "SSC Napoli", "shortName": "Napoli"}, "playedGames": 7, "points": 19, "goalsFor": 14, "goalsAgainst": 4, "form": "W,W,D,W,W"}]}
		]}`))
	})

	g := NewGateway(primary, fallback, nil, nil)
	standings, err := g.FetchStandings(context.Background(), "serie-a")
	if err != nil {
		t.Fatalf("FetchStandings: %v", err)
	}
	if len(standings) != 1 || standings[0].Team != "Napoli" || standings[0].Form != "WWDWW" {
		t.Errorf("standings = %+v", standings)
	}
}

func TestProviders_ResultsCarryTheirSource(t *testing.T) {
	client := newAPIFootball(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(apiFootballFixtures))
	})
	results, err := client.FetchResults(context.Background(), "serie-a", 3)
	if err != nil {
		t.Fatalf("FetchResults: %v", err)
	}
	for _, r := range results {
		if r.Source != client.Name() {
			t.Errorf("match %s source = %q, want %q", r.MatchID, r.Source, client.Name())
		}
	}
}

func TestAPIFootball_FindMatch(t *testing.T) {
	client := newAPIFootball(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures" || r.URL.Query().Get("date") != "2026-10-11" || r.URL.Query().Get("season") != "2026" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(apiFootballFixtures))
	})

	tests := []struct {
		name    string
		ref     models.Match
		wantID  string
		wantErr error
	}{
		{
			name:   "same pair on the same day",
			ref:    models.Match{Source: "football-feed", MatchID: "1001", League: "serie-a", HomeTeam: "Juventus FC", AwayTeam: "SSC Napoli", KickOff: time.Date(2026, 10, 11, 16, 0, 0, 0, time.UTC)},
			wantID: "1002",
		},
		{
			name:    "reversed fixture is a different match",
			ref:     models.Match{Source: "football-feed", MatchID: "9", League: "serie-a", HomeTeam: "Napoli", AwayTeam: "Juventus", KickOff: time.Date(2026, 10, 11, 16, 0, 0, 0, time.UTC)},
			wantErr: ErrMatchNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := client.FindMatch(context.Background(), tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindMatch: %v", err)
			}
			if m.MatchID != tt.wantID || m.Source != client.Name() {
				t.Errorf("got %s/%s, want %s/%s", m.Source, m.MatchID, client.Name(), tt.wantID)
			}
		})
	}
}

func TestFootballFeed_FindMatch(t *testing.T) {
	feed := newFootballFeed(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/competitions/SA/matches" || q.Get("dateFrom") != "2026-10-11" || q.Get("dateTo") != "2026-10-11" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"matches": [
			{"id": 1001, "utcDate": "2026-10-11T16:00:00Z", "status": "FINISHED",
			 "homeTeam": {"id": 1, "name": "AS Roma", "shortName": "Roma"}, "awayTeam": {"id": 2, "name": "SS Lazio", "shortName": "Lazio"},
			 "score": {"fullTime": {"home": 0, "away": 3}}},
			{"id": 555, "utcDate": "2026-10-11T18:45:00Z", "status": "FINISHED",
			 "homeTeam": {"id": 98, "name": "AC Milan", "shortName": "Milan"}, "awayTeam": {"id": 108, "name": "FC Internazionale Milano", "shortName": "Inter"},
			 "score": {"fullTime": {"home": 2, "away": 1}}}
		]}`))
	})

	// api-football's 1001 is Milan v Inter; the feed uses 1001 for another fixture
	ref := models.Match{Source: "api-football", MatchID: "1001", League: "serie-a", HomeTeam: "AC Milan", AwayTeam: "Inter", KickOff: time.Date(2026, 10, 11, 18, 45, 0, 0, time.UTC)}
	m, err := feed.FindMatch(context.Background(), ref)
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	if m.MatchID != "555" || m.Source != feed.Name() {
		t.Errorf("got %s/%s, want %s/555", m.Source, m.MatchID, feed.Name())
	}

	ref.HomeTeam, ref.AwayTeam = "Torino", "Genoa"
	if _, err := feed.FindMatch(context.Background(), ref); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestProviders_StatusesAgree(t *testing.T) {
	tests := []struct {
		apiFootball string
		feed        string
		want        models.MatchStatus
	}{
		{"NS", "SCHEDULED", models.MatchScheduled},
		{"TBD", "TIMED", models.MatchScheduled},
		{"1H", "IN_PLAY", models.MatchInPlay},
		{"HT", "PAUSED", models.MatchInPlay},
		{"FT", "FINISHED", models.MatchFinished},
		{"PST", "POSTPONED", models.MatchPostponed},
		{"SUSP", "SUSPENDED", models.MatchPostponed},
		{"CANC", "CANCELLED", models.MatchAbandoned},
		{"AWD", "AWARDED", models.MatchAbandoned},
		{"ABD", "ABANDONED", models.MatchAbandoned},
	}
	for _, tt := range tests {
		t.Run(tt.apiFootball+"/"+tt.feed, func(t *testing.T) {
			a, f := apiFootballStatus(tt.apiFootball), footballFeedStatus(tt.feed)
			if a != tt.want || f != tt.want {
				t.Errorf("api-football %s -> %s, feed %s -> %s, want %s", tt.apiFootball, a, tt.feed, f, tt.want)
			}
		})
	}
}
