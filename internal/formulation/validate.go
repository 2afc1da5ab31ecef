package formulation

import (
	"fmt"
	"math"
	"strings"

	"gorm.io/datatypes"

	"rationbook/models"
)

// percentageTolerance is the accepted absolute deviation of the percentage
// sum from 100.
const percentageTolerance = 0.1

// Entry is one proposed ingredient line in a mix, in submission order.
type Entry struct {
	IngredientID uint
	Quantity     float64
	Percentage   float64
	Role         string
	Essential    bool
}

// Metadata carries the formulation-level fields supplied on creation. Status
// is never part of it: new formulations always start as drafts.
type Metadata struct {
	Name              string
	Type              string
	AnimalID          uint
	StageID           uint
	TotalQuantity     float64
	TotalCost         float64
	Analysis          datatypes.JSON
	MeetsRequirements bool
	Notes             string
}

// ValidatePercentages checks that the entries' percentages sum to 100 within
// tolerance. It is pure and assumes the caller has already rejected empty
// mixes.
func ValidatePercentages(entries []Entry) error {
	sum := 0.0
	for _, entry := range entries {
		sum += entry.Percentage
	}
	if math.Abs(sum-100) > percentageTolerance {
		return &MixError{Sum: math.Round(sum*10) / 10}
	}
	return nil
}

// ValidateEntries performs the structural checks on a proposed mix: at least
// one entry, positive quantities, percentages within [0, 100], known roles,
// and no duplicated ingredient references.
func ValidateEntries(entries []Entry) error {
	verr := &ValidationError{}

	if len(entries) == 0 {
		verr.add("ingredients", "at least one ingredient is required")
		return verr
	}

	seen := make(map[uint]int, len(entries))
	for i, entry := range entries {
		field := func(name string) string {
			return fmt.Sprintf("ingredients[%d].%s", i, name)
		}
		if entry.IngredientID == 0 {
			verr.add(field("ingredient_id"), "ingredient reference is required")
		} else if prev, ok := seen[entry.IngredientID]; ok {
			verr.add(field("ingredient_id"), fmt.Sprintf("duplicates ingredient at position %d", prev))
		} else {
			seen[entry.IngredientID] = i
		}
		if entry.Quantity <= 0 {
			verr.add(field("quantity"), "quantity must be greater than zero")
		}
		if entry.Percentage < 0 || entry.Percentage > 100 {
			verr.add(field("percentage"), "percentage must be between 0 and 100")
		}
		if !models.KnownRole(entry.Role) {
			verr.add(field("role"), fmt.Sprintf("unknown role %q", entry.Role))
		}
	}

	return verr.orNil()
}

// ValidateMetadata checks the formulation-level fields.
func ValidateMetadata(meta Metadata) error {
	verr := &ValidationError{}

	if strings.TrimSpace(meta.Name) == "" {
		verr.add("name", "name is required")
	}
	if !models.KnownFormulationType(meta.Type) {
		verr.add("type", fmt.Sprintf("unknown formulation type %q", meta.Type))
	}
	if meta.TotalQuantity < 0 {
		verr.add("total_quantity", "total quantity must not be negative")
	}
	if meta.TotalCost < 0 {
		verr.add("total_cost", "total cost must not be negative")
	}

	return verr.orNil()
}
