package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadCSVMapsHeaderColumns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	content := "Name,Category,Unit,Cost_Per_Unit,Dry_Matter_Pct\nYellow Corn,energy,kg,0.28,88\nSoybean Meal 48,protein,kg,0.52,89\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	records, err := readCSV(path)
	if err != nil {
		t.Fatalf("readCSV returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["name"] != "Yellow Corn" || records[0]["cost_per_unit"] != "0.28" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
}

func TestBuildIngredientAppliesDefaults(t *testing.T) {
	t.Parallel()

	ingredient := buildIngredient(catalogRecord{
		"name":           "Wheat Bran",
		"cost_per_unit":  "0.18",
		"dry_matter_pct": "89%",
	})

	if ingredient.Unit != "kg" {
		t.Fatalf("expected default unit kg, got %q", ingredient.Unit)
	}
	if !ingredient.Available {
		t.Fatal("expected ingredients to default to available")
	}
	if ingredient.CostPerUnit != 0.18 {
		t.Fatalf("expected cost 0.18, got %v", ingredient.CostPerUnit)
	}
	if ingredient.DryMatterPct != 89 {
		t.Fatalf("expected percent suffix to be tolerated, got %v", ingredient.DryMatterPct)
	}
}

func TestBuildIngredientParsesAvailability(t *testing.T) {
	t.Parallel()

	ingredient := buildIngredient(catalogRecord{
		"name":      "Fish Meal",
		"available": "false",
	})
	if ingredient.Available {
		t.Fatal("expected availability false to be honored")
	}
}

func TestRunRejectsMissingFile(t *testing.T) {
	t.Parallel()

	if err := run(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing csv file")
	}
}
