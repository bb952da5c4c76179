package oddsService

import (
	"errors"
	"strings"

	"perfectTipsBot/models"
)

var preferredBookmakers = []string{"Bet365", "Pinnacle", "Unibet", "William Hill", "Bwin", "1xBet"}

func marketCount(m models.MarketOdds) int {
	n := 0
	for _, values := range [][]models.OddValue{m.MatchWinner, m.OverUnder, m.BothTeamsScore, m.DoubleChance} {
		if len(values) > 0 {
			n++
		}
	}
	return n
}

// PickBookmaker chooses which bookmaker's payload to price from. First pass
// prefers a known bookmaker with 1X2 and goals lines; second pass any known
// bookmaker; otherwise whichever payload covers the most markets.
func PickBookmaker(candidates []models.MarketOdds) (*models.MarketOdds, error) {
	if len(candidates) == 0 {
		return nil, errors.New("no bookmaker odds")
	}

	for _, name := range preferredBookmakers {
		for i := range candidates {
			c := candidates[i]
			if strings.EqualFold(c.Bookmaker, name) && len(c.MatchWinner) > 0 && len(c.OverUnder) > 0 {
				return &candidates[i], nil
			}
		}
	}

	for _, name := range preferredBookmakers {
		for i := range candidates {
			if strings.EqualFold(candidates[i].Bookmaker, name) {
				return &candidates[i], nil
			}
		}
	}

	best := 0
	for i := range candidates {
		if marketCount(candidates[i]) > marketCount(candidates[best]) {
			best = i
		}
	}
	return &candidates[best], nil
}
