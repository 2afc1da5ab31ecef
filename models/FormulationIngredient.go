package models

import (
	"gorm.io/gorm"
)

// Ingredient roles within a mix.
const (
	RolePrimary    = "primary"
	RoleSecondary  = "secondary"
	RoleSupplement = "supplement"
	RoleFiller     = "filler"
	RoleAdditive   = "additive"
)

// KnownRole reports whether value is one of the recognised ingredient roles.
func KnownRole(value string) bool {
	switch value {
	case RolePrimary, RoleSecondary, RoleSupplement, RoleFiller, RoleAdditive:
		return true
	}
	return false
}

// FormulationIngredient is one ingredient's share of a formulation. Exactly
// one row exists per (formulation, ingredient) pair; DisplayOrder preserves
// the insertion order of the submitted mix.
type FormulationIngredient struct {
	gorm.Model
	FormulationID    uint    `gorm:"not null;uniqueIndex:idx_formulation_ingredient" json:"formulation_id"`
	IngredientID     uint    `gorm:"not null;uniqueIndex:idx_formulation_ingredient" json:"ingredient_id"`
	Quantity         float64 `gorm:"not null" json:"quantity"`
	Percentage       float64 `gorm:"not null" json:"percentage"`
	Proportion       float64 `gorm:"not null" json:"proportion"`
	CostContribution float64 `json:"cost_contribution"`
	CostPercentage   float64 `json:"cost_percentage"`
	Role             string  `gorm:"not null;default:primary" json:"role"`
	Essential        bool    `gorm:"not null;default:false" json:"essential"`
	DisplayOrder     int     `gorm:"not null;default:0" json:"display_order"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
