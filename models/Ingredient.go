package models

import (
	"gorm.io/gorm"
)

// Ingredient is a catalog entry for a feed raw material. Formulations reference
// ingredients but never mutate them; the unit cost recorded here is the source
// of truth for cost allocation.
type Ingredient struct {
	gorm.Model
	Name            string  `gorm:"uniqueIndex;not null" json:"name"`
	Category        string  `json:"category"`
	Unit            string  `gorm:"not null;default:kg" json:"unit"`
	CostPerUnit     float64 `json:"cost_per_unit"`
	DryMatterPct    float64 `json:"dry_matter_pct"`
	Description     string  `gorm:"type:text" json:"description"`
	Available       bool    `gorm:"not null;default:true" json:"available"`
	MaxInclusionPct float64 `json:"max_inclusion_pct"`

	Nutrients []IngredientNutrient `gorm:"foreignKey:IngredientID" json:"nutrients,omitempty"`
}
