package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Formulation statuses. Active formulations are immutable until toggled back
// to draft. Template is a seed state and is never transitioned into.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusTemplate = "template"
)

// Formulation types.
const (
	TypeOptimal   = "optimal"
	TypeLeastCost = "least_cost"
	TypeCustom    = "custom"
	TypeTemplate  = "template"
)

// MainIngredient is one entry in the denormalized top-ingredients digest
// stored on the formulation row.
type MainIngredient struct {
	IngredientID uint    `json:"ingredient_id"`
	Percentage   float64 `json:"percentage"`
}

// MainIngredientList stores the digest as a JSON text column. It is always
// rederived alongside any ingredient-set mutation, never updated on its own.
type MainIngredientList []MainIngredient

// Value implements driver.Valuer.
func (l MainIngredientList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *MainIngredientList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported main ingredient column type %T", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// Formulation is a named feed recipe targeting an animal/production-stage
// pair. The ingredient rows are exclusively owned by the formulation and are
// replaced wholesale whenever the mix changes.
type Formulation struct {
	gorm.Model
	Name              string             `gorm:"not null" json:"name"`
	Type              string             `gorm:"not null;default:custom" json:"type"`
	Status            string             `gorm:"not null;default:draft" json:"status"`
	AnimalID          uint               `json:"animal_id"`
	StageID           uint               `json:"stage_id"`
	TotalQuantity     float64            `json:"total_quantity"`
	TotalCost         float64            `json:"total_cost"`
	CostPerUnit       float64            `json:"cost_per_unit"`
	IngredientCount   int                `gorm:"not null;default:0" json:"ingredient_count"`
	MainIngredients   MainIngredientList `gorm:"type:text" json:"main_ingredients"`
	Analysis          datatypes.JSON     `json:"analysis,omitempty"`
	MeetsRequirements bool               `gorm:"not null;default:false" json:"meets_requirements"`
	Version           int                `gorm:"not null;default:1" json:"version"`
	Notes             string             `gorm:"type:text" json:"notes"`

	Animal      *Animal                 `gorm:"foreignKey:AnimalID" json:"animal,omitempty"`
	Stage       *ProductionStage        `gorm:"foreignKey:StageID" json:"stage,omitempty"`
	Ingredients []FormulationIngredient `gorm:"foreignKey:FormulationID" json:"ingredients,omitempty"`
}

// Editable reports whether the formulation accepts metadata or ingredient
// edits in its current status.
func (f *Formulation) Editable() bool {
	return f.Status != StatusActive
}

// KnownStatus reports whether value is one of the recognised statuses.
func KnownStatus(value string) bool {
	switch value {
	case StatusDraft, StatusActive, StatusArchived, StatusTemplate:
		return true
	}
	return false
}

// KnownFormulationType reports whether value is one of the recognised types.
func KnownFormulationType(value string) bool {
	switch value {
	case TypeOptimal, TypeLeastCost, TypeCustom, TypeTemplate:
		return true
	}
	return false
}
