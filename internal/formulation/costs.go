package formulation

import (
	"context"
	"math"

	"gorm.io/gorm"

	applog "rationbook/internal/log"
	"rationbook/models"
)

// CostShare is one entry's computed cost figures.
type CostShare struct {
	Contribution float64
	Percentage   float64
}

// resolveUnitCosts resolves the current unit cost for every distinct
// ingredient referenced by the entries in a single query. Ingredients missing
// from the result are absent from the map; AllocateCosts treats them as
// zero-cost.
func resolveUnitCosts(tx *gorm.DB, entries []Entry) (map[uint]float64, error) {
	ids := make([]uint, 0, len(entries))
	seen := make(map[uint]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.IngredientID]; ok {
			continue
		}
		seen[entry.IngredientID] = struct{}{}
		ids = append(ids, entry.IngredientID)
	}

	var rows []struct {
		ID          uint
		CostPerUnit float64
	}
	if err := tx.Model(&models.Ingredient{}).
		Select("id", "cost_per_unit").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	costs := make(map[uint]float64, len(rows))
	for _, row := range rows {
		costs[row.ID] = row.CostPerUnit
	}
	return costs, nil
}

// AllocateCosts computes each entry's absolute cost contribution and its
// share of the declared total cost. A missing unit cost degrades to zero
// rather than failing; a zero total cost yields zero shares across the board.
func AllocateCosts(ctx context.Context, entries []Entry, unitCosts map[uint]float64, totalCost float64) []CostShare {
	shares := make([]CostShare, len(entries))
	contributed := 0.0
	for i, entry := range entries {
		unitCost, ok := unitCosts[entry.IngredientID]
		if !ok {
			applog.Warn(ctx, "no unit cost for ingredient, assuming zero",
				"ingredientID", entry.IngredientID)
		}
		contribution := unitCost * entry.Quantity
		share := 0.0
		if totalCost > 0 {
			share = contribution / totalCost * 100
		}
		shares[i] = CostShare{Contribution: contribution, Percentage: share}
		contributed += contribution
	}

	// The declared total is authoritative for the share denominator; the
	// contributions come from live unit costs. Surface any drift between the
	// two rather than reconciling it.
	if totalCost > 0 && math.Abs(contributed-totalCost)/totalCost > 0.01 {
		applog.Debug(ctx, "allocated ingredient costs diverge from declared total",
			"allocated", contributed, "declaredTotal", totalCost)
	}

	return shares
}
