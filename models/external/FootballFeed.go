package external

import "time"

// FootballFeed_Error is the error body the fallback feed returns with or without
// a non-2xx status.
type FootballFeed_Error struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}

type FootballFeed_Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
}

type FootballFeed_Goals struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type FootballFeed_Match struct {
	ID          int       `json:"id"`
	UtcDate     time.Time `json:"utcDate"`
	Status      string    `json:"status"`
	Competition struct {
		Code string `json:"code"`
	} `json:"competition"`
	HomeTeam FootballFeed_Team `json:"homeTeam"`
	AwayTeam FootballFeed_Team `json:"awayTeam"`
	Score    struct {
		Winner      *string             `json:"winner"`
		Duration    string              `json:"duration"`
		FullTime    FootballFeed_Goals  `json:"fullTime"`
		RegularTime *FootballFeed_Goals `json:"regularTime"`
	} `json:"score"`
	Statistics *struct {
		Corners     FootballFeed_Goals `json:"corners"`
		YellowCards FootballFeed_Goals `json:"yellowCards"`
		RedCards    FootballFeed_Goals `json:"redCards"`
	} `json:"statistics"`
}

type FootballFeed_Matches struct {
	FootballFeed_Error
	Matches []FootballFeed_Match `json:"matches"`
}

type FootballFeed_MatchDetail struct {
	FootballFeed_Error
	FootballFeed_Match
}

type FootballFeed_Outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type FootballFeed_Market struct {
	Key      string                 `json:"key"`
	Outcomes []FootballFeed_Outcome `json:"outcomes"`
}

type FootballFeed_Odds struct {
	FootballFeed_Error
	MatchID   int                   `json:"matchId"`
	Bookmaker string                `json:"bookmaker"`
	Markets   []FootballFeed_Market `json:"markets"`
}

type FootballFeed_TableRow struct {
	Position     int               `json:"position"`
	Team         FootballFeed_Team `json:"team"`
	PlayedGames  int               `json:"playedGames"`
	Points       int               `json:"points"`
	GoalsFor     int               `json:"goalsFor"`
	GoalsAgainst int               `json:"goalsAgainst"`
	Form         *string           `json:"form"`
}

type FootballFeed_Standings struct {
	FootballFeed_Error
	Standings []struct {
		Type  string                  `json:"type"`
		Table []FootballFeed_TableRow `json:"table"`
	} `json:"standings"`
}
