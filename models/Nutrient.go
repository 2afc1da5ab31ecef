package models

import (
	"gorm.io/gorm"
)

// Basis values for nutrient amounts.
const (
	BasisDryMatter = "dry_matter"
	BasisAsFed     = "as_fed"
)

// Nutrient is a catalog entry for a nutritional component (crude protein,
// lysine, calcium, ...).
type Nutrient struct {
	gorm.Model
	Name     string `gorm:"uniqueIndex;not null" json:"name"`
	Unit     string `gorm:"not null;default:%" json:"unit"`
	Category string `json:"category"`
	Notes    string `gorm:"type:text" json:"notes"`
}

// IngredientNutrient records how much of a nutrient an ingredient carries,
// expressed on either a dry-matter or as-fed basis.
type IngredientNutrient struct {
	gorm.Model
	IngredientID uint    `gorm:"not null;uniqueIndex:idx_ingredient_nutrient" json:"ingredient_id"`
	NutrientID   uint    `gorm:"not null;uniqueIndex:idx_ingredient_nutrient" json:"nutrient_id"`
	Amount       float64 `gorm:"not null" json:"amount"`
	Basis        string  `gorm:"not null;default:as_fed" json:"basis"`

	Nutrient *Nutrient `gorm:"foreignKey:NutrientID" json:"nutrient,omitempty"`
}
