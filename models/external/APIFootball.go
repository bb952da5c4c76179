package external

import (
	"encoding/json"
	"time"
)

// APIFootball_Envelope wraps every API-Football v3 response. Errors is either an
// empty array or an object keyed by error name.
type APIFootball_Envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

type APIFootball_Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type APIFootball_Score struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type APIFootball_Fixture struct {
	Fixture struct {
		ID     int       `json:"id"`
		Date   time.Time `json:"date"`
		Status struct {
			Long    string `json:"long"`
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Season int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home APIFootball_Team `json:"home"`
		Away APIFootball_Team `json:"away"`
	} `json:"teams"`
	Goals APIFootball_Score `json:"goals"`
	Score struct {
		Halftime  APIFootball_Score `json:"halftime"`
		Fulltime  APIFootball_Score `json:"fulltime"`
		Extratime APIFootball_Score `json:"extratime"`
		Penalty   APIFootball_Score `json:"penalty"`
	} `json:"score"`
}

type APIFootball_OddsEntry struct {
	Fixture struct {
		ID int `json:"id"`
	} `json:"fixture"`
	Bookmakers []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Bets []struct {
			ID     int    `json:"id"`
			Name   string `json:"name"`
			Values []struct {
				Value string `json:"value"`
				Odd   string `json:"odd"`
			} `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}

type APIFootball_StandingRow struct {
	Rank      int              `json:"rank"`
	Team      APIFootball_Team `json:"team"`
	Points    int              `json:"points"`
	GoalsDiff int              `json:"goalsDiff"`
	Form      string           `json:"form"`
	All       struct {
		Played int `json:"played"`
		Goals  struct {
			For     int `json:"for"`
			Against int `json:"against"`
		} `json:"goals"`
	} `json:"all"`
}

type APIFootball_Standings struct {
	League struct {
		ID        int                         `json:"id"`
		Season    int                         `json:"season"`
		Standings [][]APIFootball_StandingRow `json:"standings"`
	} `json:"league"`
}

type APIFootball_TeamStatistics struct {
	Team       APIFootball_Team `json:"team"`
	Statistics []struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"statistics"`
}
