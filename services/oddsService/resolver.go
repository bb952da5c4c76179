package oddsService

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"perfectTipsBot/models"
	"perfectTipsBot/services/predictionService"
)

// ComboCorrelationDiscount is applied to the product of the two leg prices of a
// side+goals combo. A side winning and the match being high scoring are positively
// correlated, so the naive product overprices the combo. The value is a fixed
// calibration constant, not derived from data; change it only with pricing input.
var ComboCorrelationDiscount = decimal.RequireFromString("0.92")

var ErrNoPrice = errors.New("market not priced")

var sideLabels = map[predictionService.Market][]string{
	predictionService.MarketHome:       {"1", "home"},
	predictionService.MarketDraw:       {"x", "draw"},
	predictionService.MarketAway:       {"2", "away"},
	predictionService.MarketHomeOrDraw: {"1x", "home/draw"},
	predictionService.MarketDrawOrAway: {"x2", "draw/away"},
	predictionService.MarketHomeOrAway: {"12", "home/away"},
}

var bttsLabels = map[predictionService.Market][]string{
	predictionService.MarketGoal:   {"yes", "goal", "gg"},
	predictionService.MarketNoGoal: {"no", "no goal", "ng"},
}

func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ResolveOdds returns the decimal price for a prediction code, or false when
// the payload does not price that market. Combo codes are synthesised from
// their legs rather than looked up.
func ResolveOdds(market models.MarketOdds, raw string) (float64, bool) {
	code, err := predictionService.ParseCode(raw)
	if err != nil {
		return 0, false
	}
	price, err := resolve(market, code)
	if err != nil {
		return 0, false
	}
	return price.InexactFloat64(), true
}

func resolve(market models.MarketOdds, code predictionService.Code) (decimal.Decimal, error) {
	switch code.Market {
	case predictionService.MarketHome, predictionService.MarketDraw, predictionService.MarketAway:
		return findLabel(market.MatchWinner, sideLabels[code.Market])
	case predictionService.MarketHomeOrDraw, predictionService.MarketDrawOrAway, predictionService.MarketHomeOrAway:
		return findLabel(market.DoubleChance, sideLabels[code.Market])
	case predictionService.MarketGoal, predictionService.MarketNoGoal:
		return findLabel(market.BothTeamsScore, bttsLabels[code.Market])
	case predictionService.MarketOver, predictionService.MarketUnder:
		return findThreshold(market.OverUnder, code.Market, code.Threshold)
	case predictionService.MarketCornersOver:
		return findThreshold(market.CornersOverUnder, predictionService.MarketOver, code.Threshold)
	case predictionService.MarketCornersUnder:
		return findThreshold(market.CornersOverUnder, predictionService.MarketUnder, code.Threshold)
	case predictionService.MarketCardsOver:
		return findThreshold(market.CardsOverUnder, predictionService.MarketOver, code.Threshold)
	case predictionService.MarketCardsUnder:
		return findThreshold(market.CardsOverUnder, predictionService.MarketUnder, code.Threshold)
	case predictionService.MarketCombo:
		return comboPrice(market, code)
	}
	return decimal.Zero, ErrNoPrice
}

func comboPrice(market models.MarketOdds, code predictionService.Code) (decimal.Decimal, error) {
	sideMarket := market.MatchWinner
	switch code.Side {
	case predictionService.MarketHomeOrDraw, predictionService.MarketDrawOrAway, predictionService.MarketHomeOrAway:
		sideMarket = market.DoubleChance
	}
	side, err := findLabel(sideMarket, sideLabels[code.Side])
	if err != nil {
		return decimal.Zero, err
	}
	goals, err := findThreshold(market.OverUnder, code.Totals, code.Threshold)
	if err != nil {
		return decimal.Zero, err
	}
	return side.Mul(goals).Mul(ComboCorrelationDiscount).Round(2), nil
}

func findLabel(values []models.OddValue, labels []string) (decimal.Decimal, error) {
	for _, v := range values {
		if !isPrice(v.Odd) {
			continue
		}
		label := normalizeLabel(v.Label)
		for _, want := range labels {
			if label == want {
				return decimal.NewFromFloat(v.Odd), nil
			}
		}
	}
	return decimal.Zero, ErrNoPrice
}

// findThreshold matches the exact line; a 2.5 code never reads a 1.5 or 3.5 price.
func findThreshold(values []models.OddValue, direction predictionService.Market, threshold float64) (decimal.Decimal, error) {
	for _, v := range values {
		if !isPrice(v.Odd) {
			continue
		}
		code, err := predictionService.ParseCode(v.Label)
		if err != nil {
			continue
		}
		if code.Market == direction && code.Threshold == threshold {
			return decimal.NewFromFloat(v.Odd), nil
		}
	}
	return decimal.Zero, ErrNoPrice
}

func isPrice(odd float64) bool {
	return odd >= 1.0
}

// CombinedOdds is the accumulator price: the product of member prices, 2dp.
func CombinedOdds(odds []float64) float64 {
	product := decimal.NewFromInt(1)
	for _, o := range odds {
		product = product.Mul(decimal.NewFromFloat(o))
	}
	return product.Round(2).InexactFloat64()
}
