package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchInPlay    MatchStatus = "in_play"
	MatchFinished  MatchStatus = "finished"
	MatchPostponed MatchStatus = "postponed"
	MatchAbandoned MatchStatus = "abandoned"
)

// Match is a fixture normalised from either provider. MatchID and the team
// ids belong to the id space of Source; the providers do not share ids.
type Match struct {
	Source     string
	MatchID    string
	League     string
	HomeTeam   string
	AwayTeam   string
	HomeTeamID string
	AwayTeamID string
	KickOff    time.Time
	Status     MatchStatus
}

type MatchExtras struct {
	Corners *int
	Cards   *int
}

// MatchResult is provider-sourced and only lives for the duration of a settlement pass.
type MatchResult struct {
	Match
	GoalsHome *int
	GoalsAway *int
	Extras    *MatchExtras
}

// Scored reports whether the result carries a final score that can settle tips.
func (r MatchResult) Scored() bool {
	return r.Status == MatchFinished && r.GoalsHome != nil && r.GoalsAway != nil
}

func (r MatchResult) TotalGoals() int {
	if r.GoalsHome == nil || r.GoalsAway == nil {
		return 0
	}
	return *r.GoalsHome + *r.GoalsAway
}

type Standing struct {
	Rank         int
	Team         string
	Played       int
	Points       int
	GoalsFor     int
	GoalsAgainst int
	Form         string
}

type HeadToHead struct {
	MatchID  string
	Meetings []MatchResult
}

// OddValue is one selectable outcome inside a market, e.g. {"Over 2.5", 1.85}.
type OddValue struct {
	Label string
	Odd   float64
}

// MarketOdds is the raw multi-market odds payload for one match.
type MarketOdds struct {
	MatchID          string
	Bookmaker        string
	MatchWinner      []OddValue
	OverUnder        []OddValue
	BothTeamsScore   []OddValue
	DoubleChance     []OddValue
	CornersOverUnder []OddValue
	CardsOverUnder   []OddValue
}
