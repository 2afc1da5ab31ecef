package formulation

import (
	"context"
	"math"
	"testing"
)

func TestAllocateCostsComputesContributionsAndShares(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{IngredientID: 1, Quantity: 600},
		{IngredientID: 2, Quantity: 400},
	}
	unitCosts := map[uint]float64{1: 0.25, 2: 0.5}

	shares := AllocateCosts(context.Background(), entries, unitCosts, 350)
	if len(shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(shares))
	}
	if shares[0].Contribution != 150 {
		t.Fatalf("expected contribution 150, got %v", shares[0].Contribution)
	}
	if shares[1].Contribution != 200 {
		t.Fatalf("expected contribution 200, got %v", shares[1].Contribution)
	}

	sum := shares[0].Percentage + shares[1].Percentage
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("expected shares to sum to 100 when costs match the total, got %v", sum)
	}
}

func TestAllocateCostsDoesNotReconcileDivergentTotal(t *testing.T) {
	t.Parallel()

	// The caller-declared total is authoritative for the denominator even when
	// live unit costs disagree with it.
	entries := []Entry{
		{IngredientID: 1, Quantity: 60},
		{IngredientID: 2, Quantity: 40},
	}
	unitCosts := map[uint]float64{1: 1.0, 2: 1.5}

	shares := AllocateCosts(context.Background(), entries, unitCosts, 100)
	if shares[0].Contribution != 60 || shares[1].Contribution != 60 {
		t.Fatalf("expected contributions [60 60], got %+v", shares)
	}
	if shares[0].Percentage != 60 || shares[1].Percentage != 60 {
		t.Fatalf("expected shares computed against the declared total, got %+v", shares)
	}
}

func TestAllocateCostsZeroTotalYieldsZeroShares(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{IngredientID: 1, Quantity: 10},
		{IngredientID: 2, Quantity: 20},
	}
	unitCosts := map[uint]float64{1: 2, 2: 3}

	shares := AllocateCosts(context.Background(), entries, unitCosts, 0)
	for i, share := range shares {
		if share.Percentage != 0 {
			t.Fatalf("expected zero share at %d for zero total cost, got %v", i, share.Percentage)
		}
	}
	if shares[0].Contribution != 20 || shares[1].Contribution != 60 {
		t.Fatalf("expected contributions still computed, got %+v", shares)
	}
}

func TestAllocateCostsTreatsMissingUnitCostAsZero(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{IngredientID: 1, Quantity: 50},
		{IngredientID: 99, Quantity: 50},
	}
	unitCosts := map[uint]float64{1: 1.0}

	shares := AllocateCosts(context.Background(), entries, unitCosts, 50)
	if shares[0].Contribution != 50 {
		t.Fatalf("expected known ingredient contribution 50, got %v", shares[0].Contribution)
	}
	if shares[1].Contribution != 0 || shares[1].Percentage != 0 {
		t.Fatalf("expected zero-cost fallback for unknown ingredient, got %+v", shares[1])
	}
}
