package models

import (
	"gorm.io/gorm"
)

// Animal is a target species or category a formulation is designed for.
type Animal struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Species     string `json:"species"`
	Description string `gorm:"type:text" json:"description"`

	Stages []ProductionStage `gorm:"foreignKey:AnimalID" json:"stages,omitempty"`
}

// ProductionStage is a life or production phase of an animal (starter,
// grower, finisher, lactation, ...). Formulations target one stage.
type ProductionStage struct {
	gorm.Model
	AnimalID    uint    `gorm:"not null" json:"animal_id"`
	Name        string  `gorm:"not null" json:"name"`
	MinWeightKg float64 `json:"min_weight_kg"`
	MaxWeightKg float64 `json:"max_weight_kg"`
	Description string  `gorm:"type:text" json:"description"`

	Animal *Animal `gorm:"foreignKey:AnimalID" json:"animal,omitempty"`
}
