package predictionService

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrUnknownCode = errors.New("unrecognized prediction code")

type Market int

const (
	MarketUnknown Market = iota
	MarketHome
	MarketDraw
	MarketAway
	MarketHomeOrDraw
	MarketDrawOrAway
	MarketHomeOrAway
	MarketOver
	MarketUnder
	MarketGoal
	MarketNoGoal
	MarketCombo
	MarketCornersOver
	MarketCornersUnder
	MarketCardsOver
	MarketCardsUnder
)

// Code is a prediction code parsed once from the external vocabulary.
type Code struct {
	Raw       string
	Market    Market
	Threshold float64
	// Combo legs: Side is a 1X2 or double-chance market, Totals is Over or Under
	// at Threshold.
	Side   Market
	Totals Market
}

// IsCombo reports whether the code needs two simultaneous conditions.
func (c Code) IsCombo() bool { return c.Market == MarketCombo }

// NeedsExtras reports whether settling the code requires corner or card counts.
func (c Code) NeedsExtras() bool {
	switch c.Market {
	case MarketCornersOver, MarketCornersUnder, MarketCardsOver, MarketCardsUnder:
		return true
	}
	return false
}

var sideAliases = map[string]Market{
	"1":  MarketHome,
	"x":  MarketDraw,
	"2":  MarketAway,
	"1x": MarketHomeOrDraw,
	"x1": MarketHomeOrDraw,
	"x2": MarketDrawOrAway,
	"2x": MarketDrawOrAway,
	"12": MarketHomeOrAway,
	"21": MarketHomeOrAway,
}

var bttsAliases = map[string]Market{
	"goal":     MarketGoal,
	"gg":       MarketGoal,
	"btts":     MarketGoal,
	"btts yes": MarketGoal,
	"no goal":  MarketNoGoal,
	"nogoal":   MarketNoGoal,
	"ng":       MarketNoGoal,
	"btts no":  MarketNoGoal,
	"no-goal":  MarketNoGoal,
}

func normalizeCode(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// ParseCode maps an external prediction string onto the closed vocabulary.
// Matching ignores case and surrounding/duplicated whitespace.
func ParseCode(raw string) (Code, error) {
	s := normalizeCode(raw)
	code := Code{Raw: strings.TrimSpace(raw)}
	if s == "" {
		return code, fmt.Errorf("%w: empty", ErrUnknownCode)
	}

	if strings.Contains(s, "+") {
		parts := strings.SplitN(s, "+", 2)
		side, ok := sideAliases[strings.TrimSpace(parts[0])]
		if !ok {
			return code, fmt.Errorf("%w: %q", ErrUnknownCode, raw)
		}
		totals, threshold, err := parseTotals(strings.TrimSpace(parts[1]))
		if err != nil {
			return code, fmt.Errorf("%w: %q", ErrUnknownCode, raw)
		}
		code.Market = MarketCombo
		code.Side = side
		code.Totals = totals
		code.Threshold = threshold
		return code, nil
	}

	if m, ok := sideAliases[s]; ok {
		code.Market = m
		return code, nil
	}
	if m, ok := bttsAliases[s]; ok {
		code.Market = m
		return code, nil
	}

	for prefix, markets := range statMarkets {
		if rest, ok := strings.CutPrefix(s, prefix+" "); ok {
			totals, threshold, err := parseTotals(rest)
			if err != nil {
				return code, fmt.Errorf("%w: %q", ErrUnknownCode, raw)
			}
			code.Market = markets[0]
			if totals == MarketUnder {
				code.Market = markets[1]
			}
			code.Threshold = threshold
			return code, nil
		}
	}

	if totals, threshold, err := parseTotals(s); err == nil {
		code.Market = totals
		code.Threshold = threshold
		return code, nil
	}

	return code, fmt.Errorf("%w: %q", ErrUnknownCode, raw)
}

var statMarkets = map[string][2]Market{
	"corners": {MarketCornersOver, MarketCornersUnder},
	"cards":   {MarketCardsOver, MarketCardsUnder},
}

// parseTotals reads "over 2.5" / "under 1.5" (or the short "o2.5" / "u2.5").
// Only half-goal thresholds are part of the vocabulary.
func parseTotals(s string) (Market, float64, error) {
	var market Market
	var num string
	switch {
	case strings.HasPrefix(s, "over"):
		market, num = MarketOver, strings.TrimPrefix(s, "over")
	case strings.HasPrefix(s, "under"):
		market, num = MarketUnder, strings.TrimPrefix(s, "under")
	case strings.HasPrefix(s, "o"):
		market, num = MarketOver, strings.TrimPrefix(s, "o")
	case strings.HasPrefix(s, "u"):
		market, num = MarketUnder, strings.TrimPrefix(s, "u")
	default:
		return MarketUnknown, 0, ErrUnknownCode
	}

	threshold, err := ParseThreshold(num)
	if err != nil {
		return MarketUnknown, 0, err
	}
	return market, threshold, nil
}

// ParseThreshold parses an N.5 line such as "2.5".
func ParseThreshold(s string) (float64, error) {
	t, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrUnknownCode
	}
	if t < 0 || math.Mod(t, 1) != 0.5 {
		return 0, ErrUnknownCode
	}
	return t, nil
}
