package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "rationbook/internal/log"
	"rationbook/internal/views/pages"
	"rationbook/models"
)

type ingredientNutrientResponse struct {
	NutrientID   uint    `json:"nutrient_id"`
	NutrientName string  `json:"nutrient_name"`
	Unit         string  `json:"unit"`
	Amount       float64 `json:"amount"`
	Basis        string  `json:"basis"`
}

type ingredientResponse struct {
	ID              uint                         `json:"id"`
	Name            string                       `json:"name"`
	Category        string                       `json:"category"`
	Unit            string                       `json:"unit"`
	CostPerUnit     float64                      `json:"cost_per_unit"`
	DryMatterPct    float64                      `json:"dry_matter_pct"`
	Description     string                       `json:"description"`
	Available       bool                         `json:"available"`
	MaxInclusionPct float64                      `json:"max_inclusion_pct"`
	Nutrients       []ingredientNutrientResponse `json:"nutrients"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

type ingredientWriteRequest struct {
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Unit            string  `json:"unit"`
	CostPerUnit     float64 `json:"cost_per_unit"`
	DryMatterPct    float64 `json:"dry_matter_pct"`
	Description     string  `json:"description"`
	Available       bool    `json:"available"`
	MaxInclusionPct float64 `json:"max_inclusion_pct"`
}

// IngredientResource handles REST-style interactions for catalog ingredients.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if _, ok := currentUserID(r); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/ingredients")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id := pages.ParseUint(path)
	if id == 0 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, id)
	case http.MethodPut:
		updateIngredient(w, r, id)
	case http.MethodDelete:
		deleteIngredient(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).
		Preload("Nutrients.Nutrient").
		Order("name asc")

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		query = query.Where("lower(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		query = query.Where("category = ?", category)
	}

	var results []models.Ingredient
	if err := query.Find(&results).Error; err != nil {
		applog.Error(ctx, "failed to list ingredients", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredients")
		return
	}

	responses := make([]ingredientResponse, 0, len(results))
	for _, ingredient := range results {
		responses = append(responses, projectIngredient(ingredient))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).Preload("Nutrients.Nutrient").First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(ingredient))
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload ingredientWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	unit := strings.TrimSpace(payload.Unit)
	if unit == "" {
		unit = "kg"
	}

	ingredient := models.Ingredient{
		Name:            name,
		Category:        strings.TrimSpace(payload.Category),
		Unit:            unit,
		CostPerUnit:     payload.CostPerUnit,
		DryMatterPct:    payload.DryMatterPct,
		Description:     strings.TrimSpace(payload.Description),
		Available:       payload.Available,
		MaxInclusionPct: payload.MaxInclusionPct,
	}
	if err := database.WithContext(ctx).Create(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to create ingredient", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create ingredient")
		return
	}
	writeJSON(w, http.StatusCreated, projectIngredient(ingredient))
}

func updateIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient for update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	var payload ingredientWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	updates := map[string]any{
		"name":              name,
		"category":          strings.TrimSpace(payload.Category),
		"unit":              strings.TrimSpace(payload.Unit),
		"cost_per_unit":     payload.CostPerUnit,
		"dry_matter_pct":    payload.DryMatterPct,
		"description":       strings.TrimSpace(payload.Description),
		"available":         payload.Available,
		"max_inclusion_pct": payload.MaxInclusionPct,
	}
	if err := database.WithContext(ctx).Model(&ingredient).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update ingredient", "error", err, "id", id)
		writeJSONError(w, http.StatusBadRequest, "unable to update ingredient")
		return
	}

	if err := database.WithContext(ctx).Preload("Nutrients.Nutrient").First(&ingredient, id).Error; err != nil {
		applog.Error(ctx, "failed to reload ingredient after update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated record")
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(ingredient))
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient for delete", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	// Refuse deletion while formulations still reference the ingredient.
	var references int64
	if err := database.WithContext(ctx).Model(&models.FormulationIngredient{}).
		Where("ingredient_id = ?", id).Count(&references).Error; err != nil {
		applog.Error(ctx, "failed to count ingredient references", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete ingredient")
		return
	}
	if references > 0 {
		writeJSONError(w, http.StatusConflict, "ingredient is used by existing formulations")
		return
	}

	if err := database.WithContext(ctx).Delete(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to delete ingredient", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete ingredient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectIngredient(ingredient models.Ingredient) ingredientResponse {
	nutrients := make([]ingredientNutrientResponse, 0, len(ingredient.Nutrients))
	for _, entry := range ingredient.Nutrients {
		name, unit := "", ""
		if entry.Nutrient != nil {
			name = entry.Nutrient.Name
			unit = entry.Nutrient.Unit
		}
		nutrients = append(nutrients, ingredientNutrientResponse{
			NutrientID:   entry.NutrientID,
			NutrientName: name,
			Unit:         unit,
			Amount:       entry.Amount,
			Basis:        entry.Basis,
		})
	}

	return ingredientResponse{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		Category:        ingredient.Category,
		Unit:            ingredient.Unit,
		CostPerUnit:     ingredient.CostPerUnit,
		DryMatterPct:    ingredient.DryMatterPct,
		Description:     ingredient.Description,
		Available:       ingredient.Available,
		MaxInclusionPct: ingredient.MaxInclusionPct,
		Nutrients:       nutrients,
		CreatedAt:       ingredient.CreatedAt,
		UpdatedAt:       ingredient.UpdatedAt,
	}
}
