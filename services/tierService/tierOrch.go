package tierService

import (
	"sort"
	"strings"

	"perfectTipsBot/models"
)

// Classification thresholds. Calibration constants, not fitted to data; change
// them only with product input.
const (
	FreeMinConfidence = 80
	FreeMaxOdds       = 1.8
	VIPMinOdds        = 2.5
	ProMinConfidence  = 70

	// MinBalanceBatch is the smallest batch the balancer will redistribute.
	MinBalanceBatch = 3
)

// RawPrediction is a priced prediction before it has a tier.
type RawPrediction struct {
	MatchID        string
	League         string
	HomeTeam       string
	AwayTeam       string
	PredictionCode string
	Odds           float64
	Confidence     int
	Analysis       string
}

// TieredPrediction is a RawPrediction with its subscription tier.
type TieredPrediction struct {
	RawPrediction
	Tier models.Tier
}

// Classify assigns a tier using a first-match-wins decision table.
func Classify(confidence int, odds float64, code string) models.Tier {
	switch {
	case confidence >= FreeMinConfidence && odds <= FreeMaxOdds:
		return models.TierFree
	case strings.Contains(code, "+"):
		return models.TierVIP
	case odds >= VIPMinOdds:
		return models.TierVIP
	case confidence >= ProMinConfidence:
		return models.TierPro
	default:
		return models.TierFree
	}
}

// IsDiverse reports whether every tier is represented in the batch.
func IsDiverse(batch []TieredPrediction) bool {
	seen := make(map[models.Tier]bool, 3)
	for _, p := range batch {
		seen[p.Tier] = true
	}
	return seen[models.TierFree] && seen[models.TierPro] && seen[models.TierVIP]
}

// Balance guarantees tier diversity for batches of three or more. A diverse
// batch is returned unchanged; otherwise the batch is ordered by
// confidence×odds and cut into contiguous thirds (free, pro, vip).
// The prediction content is never touched, only the tier.
func Balance(batch []TieredPrediction) []TieredPrediction {
	if len(batch) < MinBalanceBatch || IsDiverse(batch) {
		return batch
	}

	out := make([]TieredPrediction, len(batch))
	copy(out, batch)
	sort.SliceStable(out, func(i, j int) bool {
		return score(out[i]) < score(out[j])
	})

	n := len(out)
	for i := range out {
		switch i * 3 / n {
		case 0:
			out[i].Tier = models.TierFree
		case 1:
			out[i].Tier = models.TierPro
		default:
			out[i].Tier = models.TierVIP
		}
	}
	return out
}

func score(p TieredPrediction) float64 {
	return float64(p.Confidence) * p.Odds
}

// ClassifyAndBalance is the generation path entry point.
func ClassifyAndBalance(raw []RawPrediction) []TieredPrediction {
	batch := make([]TieredPrediction, 0, len(raw))
	for _, r := range raw {
		batch = append(batch, TieredPrediction{
			RawPrediction: r,
			Tier:          Classify(r.Confidence, r.Odds, r.PredictionCode),
		})
	}
	return Balance(batch)
}
