package predictionService

import (
	"fmt"

	"go.uber.org/zap"
	"perfectTipsBot/models"
)

type VerdictKind int

const (
	// Settled carries a terminal outcome in Verdict.Outcome.
	Settled VerdictKind = iota
	// RequiresManualReview means the result lacks the data this market needs.
	// The tip must stay pending and be routed to a human.
	RequiresManualReview
	// Unrecognized means the code is outside the vocabulary; Outcome is void.
	Unrecognized
)

func (k VerdictKind) String() string {
	switch k {
	case Settled:
		return "settled"
	case RequiresManualReview:
		return "manual_review"
	case Unrecognized:
		return "unrecognized"
	}
	return "unknown"
}

type Verdict struct {
	Kind    VerdictKind
	Outcome models.TipStatus
}

func settled(won bool) Verdict {
	if won {
		return Verdict{Kind: Settled, Outcome: models.StatusWon}
	}
	return Verdict{Kind: Settled, Outcome: models.StatusLost}
}

var manualReview = Verdict{Kind: RequiresManualReview}

var unrecognized = Verdict{Kind: Unrecognized, Outcome: models.StatusVoid}

type Evaluator struct {
	log *zap.Logger
}

func NewEvaluator(log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{log: log}
}

// Evaluate parses the raw code and settles it against the result. Codes outside
// the vocabulary void the tip and are reported as a data-quality warning.
func (e *Evaluator) Evaluate(raw string, result models.MatchResult) Verdict {
	code, err := ParseCode(raw)
	if err != nil {
		e.log.Warn("unrecognized prediction code, voiding tip",
			zap.String("code", raw),
			zap.String("match_id", result.MatchID),
		)
		return unrecognized
	}
	return EvaluateCode(code, result)
}

// EvaluateCode is the pure outcome table.
func EvaluateCode(code Code, result models.MatchResult) Verdict {
	if result.GoalsHome == nil || result.GoalsAway == nil {
		return manualReview
	}
	home, away := *result.GoalsHome, *result.GoalsAway
	total := home + away

	switch code.Market {
	case MarketHome, MarketDraw, MarketAway, MarketHomeOrDraw, MarketDrawOrAway, MarketHomeOrAway:
		return settled(sideWins(code.Market, home, away))
	case MarketOver, MarketUnder:
		return settled(totalsWins(code.Market, code.Threshold, total))
	case MarketGoal:
		return settled(home > 0 && away > 0)
	case MarketNoGoal:
		return settled(!(home > 0 && away > 0))
	case MarketCombo:
		return settled(sideWins(code.Side, home, away) && totalsWins(code.Totals, code.Threshold, total))
	case MarketCornersOver, MarketCornersUnder:
		if result.Extras == nil || result.Extras.Corners == nil {
			return manualReview
		}
		return settled(totalsWins(statDirection(code.Market), code.Threshold, *result.Extras.Corners))
	case MarketCardsOver, MarketCardsUnder:
		if result.Extras == nil || result.Extras.Cards == nil {
			return manualReview
		}
		return settled(totalsWins(statDirection(code.Market), code.Threshold, *result.Extras.Cards))
	}
	return unrecognized
}

func sideWins(side Market, home, away int) bool {
	switch side {
	case MarketHome:
		return home > away
	case MarketDraw:
		return home == away
	case MarketAway:
		return away > home
	case MarketHomeOrDraw:
		return home >= away
	case MarketDrawOrAway:
		return away >= home
	case MarketHomeOrAway:
		return home != away
	}
	return false
}

func totalsWins(direction Market, threshold float64, count int) bool {
	if direction == MarketOver {
		return float64(count) > threshold
	}
	return float64(count) < threshold
}

func statDirection(m Market) Market {
	if m == MarketCornersOver || m == MarketCardsOver {
		return MarketOver
	}
	return MarketUnder
}

// FormatScore renders a score as stored on tips, e.g. "2-1".
func FormatScore(home, away int) string {
	return fmt.Sprintf("%d-%d", home, away)
}

// DescribeResult renders the canonical descriptor used for the audit trail and
// notifications: score, 1X2 sign, 2.5 line, 1.5 line, both-teams-to-score.
// "3-1, 1, O2.5, O1.5, Goal"
func DescribeResult(result models.MatchResult) string {
	if result.GoalsHome == nil || result.GoalsAway == nil {
		return ""
	}
	home, away := *result.GoalsHome, *result.GoalsAway
	total := home + away

	sign := "X"
	if home > away {
		sign = "1"
	} else if away > home {
		sign = "2"
	}

	line25 := "U2.5"
	if total > 2 {
		line25 = "O2.5"
	}
	line15 := "U1.5"
	if total > 1 {
		line15 = "O1.5"
	}
	btts := "NoGoal"
	if home > 0 && away > 0 {
		btts = "Goal"
	}

	return fmt.Sprintf("%s, %s, %s, %s, %s", FormatScore(home, away), sign, line25, line15, btts)
}
