package formulation

import (
	"sort"

	"rationbook/models"
)

// mainIngredientLimit caps the denormalized digest stored on the formulation row.
const mainIngredientLimit = 5

// BuildSummary derives the main-ingredients digest: the top entries by
// percentage descending, ties keeping their submission order.
func BuildSummary(entries []Entry) models.MainIngredientList {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percentage > ranked[j].Percentage
	})

	limit := mainIngredientLimit
	if len(ranked) < limit {
		limit = len(ranked)
	}

	summary := make(models.MainIngredientList, 0, limit)
	for _, entry := range ranked[:limit] {
		summary = append(summary, models.MainIngredient{
			IngredientID: entry.IngredientID,
			Percentage:   entry.Percentage,
		})
	}
	return summary
}
