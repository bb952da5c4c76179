package generationService

import (
	"sort"

	"perfectTipsBot/models"
)

// legsByRisk is the number of legs for each accumulator risk level.
var legsByRisk = []struct {
	risk int
	legs int
}{
	{1, 2},
	{2, 3},
	{3, 4},
}

type AccumulatorPlan struct {
	Accumulator models.Accumulator
	Legs        []models.Tip
}

var tierRank = map[models.Tier]int{
	models.TierFree: 0,
	models.TierPro:  1,
	models.TierVIP:  2,
}

// BuildAccumulators bundles freshly created tips, shortest priced first. Each
// risk level takes more legs; an accumulator's tier is the highest tier among
// its legs. Levels that would need more tips than exist are skipped.
func BuildAccumulators(tips []models.Tip) []AccumulatorPlan {
	sorted := append([]models.Tip(nil), tips...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Odds < sorted[j].Odds })

	var plans []AccumulatorPlan
	for _, level := range legsByRisk {
		if len(sorted) < level.legs {
			break
		}
		legs := append([]models.Tip(nil), sorted[:level.legs]...)
		tier := models.TierFree
		for _, leg := range legs {
			if tierRank[leg.Tier] > tierRank[tier] {
				tier = leg.Tier
			}
		}
		plans = append(plans, AccumulatorPlan{
			Accumulator: models.Accumulator{RiskLevel: level.risk, Tier: tier, Status: models.StatusPending},
			Legs:        legs,
		})
	}
	return plans
}
