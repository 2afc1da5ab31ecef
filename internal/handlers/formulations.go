package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"

	"rationbook/internal/formulation"
	applog "rationbook/internal/log"
	"rationbook/internal/views/pages"
	"rationbook/models"
)

type formulationIngredientResponse struct {
	ID               uint    `json:"id"`
	IngredientID     uint    `json:"ingredient_id"`
	IngredientName   string  `json:"ingredient_name"`
	Quantity         float64 `json:"quantity"`
	Percentage       float64 `json:"percentage"`
	Proportion       float64 `json:"proportion"`
	CostContribution float64 `json:"cost_contribution"`
	CostPercentage   float64 `json:"cost_percentage"`
	Role             string  `json:"role"`
	Essential        bool    `json:"essential"`
	DisplayOrder     int     `json:"display_order"`
}

type formulationResponse struct {
	ID                uint                            `json:"id"`
	Name              string                          `json:"name"`
	Type              string                          `json:"type"`
	Status            string                          `json:"status"`
	AnimalID          uint                            `json:"animal_id"`
	StageID           uint                            `json:"stage_id"`
	TotalQuantity     float64                         `json:"total_quantity"`
	TotalCost         float64                         `json:"total_cost"`
	CostPerUnit       float64                         `json:"cost_per_unit"`
	IngredientCount   int                             `json:"ingredient_count"`
	MainIngredients   models.MainIngredientList       `json:"main_ingredients"`
	Analysis          json.RawMessage                 `json:"analysis,omitempty"`
	MeetsRequirements bool                            `json:"meets_requirements"`
	Version           int                             `json:"version"`
	Notes             string                          `json:"notes"`
	Editable          bool                            `json:"editable"`
	CreatedAt         time.Time                       `json:"created_at"`
	UpdatedAt         time.Time                       `json:"updated_at"`
	Ingredients       []formulationIngredientResponse `json:"ingredients,omitempty"`
}

type ingredientEntryRequest struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Percentage   float64 `json:"percentage"`
	Role         string  `json:"role"`
	Essential    bool    `json:"essential"`
}

type formulationCreateRequest struct {
	Name              string                   `json:"name"`
	Type              string                   `json:"type"`
	AnimalID          uint                     `json:"animal_id"`
	StageID           uint                     `json:"stage_id"`
	TotalQuantity     float64                  `json:"total_quantity"`
	TotalCost         float64                  `json:"total_cost"`
	Analysis          json.RawMessage          `json:"analysis"`
	MeetsRequirements bool                     `json:"meets_requirements"`
	Notes             string                   `json:"notes"`
	Ingredients       []ingredientEntryRequest `json:"ingredients"`
}

type formulationUpdateRequest struct {
	Name              *string                   `json:"name"`
	Type              *string                   `json:"type"`
	AnimalID          *uint                     `json:"animal_id"`
	StageID           *uint                     `json:"stage_id"`
	TotalQuantity     *float64                  `json:"total_quantity"`
	TotalCost         *float64                  `json:"total_cost"`
	Analysis          json.RawMessage           `json:"analysis"`
	MeetsRequirements *bool                     `json:"meets_requirements"`
	Notes             *string                   `json:"notes"`
	Ingredients       *[]ingredientEntryRequest `json:"ingredients"`
	ExpectedVersion   *int                      `json:"expected_version"`
}

type formulationDuplicateRequest struct {
	Name string `json:"name"`
}

type formulationStatusRequest struct {
	Active bool `json:"active"`
}

// FormulationResource handles REST-style interactions for formulation records.
func FormulationResource(w http.ResponseWriter, r *http.Request) {
	if database == nil || formulations == nil {
		applog.Debug(r.Context(), "formulation request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if _, ok := currentUserID(r); !ok {
		applog.Debug(r.Context(), "formulation request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/formulations")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listFormulations(w, r)
		case http.MethodPost:
			createFormulation(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	id := pages.ParseUint(segments[0])
	if id == 0 {
		applog.Debug(r.Context(), "invalid formulation identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) > 1 {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch segments[1] {
		case "duplicate":
			duplicateFormulation(w, r, id)
		case "status":
			toggleFormulationStatus(w, r, id)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showFormulation(w, r, id)
	case http.MethodPut:
		updateFormulation(w, r, id)
	case http.MethodDelete:
		deleteFormulation(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listFormulations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := formulation.ListFilter{
		Status:   strings.TrimSpace(r.URL.Query().Get("status")),
		AnimalID: pages.ParseUint(r.URL.Query().Get("animal_id")),
		StageID:  pages.ParseUint(r.URL.Query().Get("stage_id")),
		Query:    strings.TrimSpace(r.URL.Query().Get("q")),
	}

	results, err := formulations.List(ctx, filter)
	if err != nil {
		applog.Error(ctx, "failed to list formulations", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load formulations")
		return
	}

	responses := make([]formulationResponse, 0, len(results))
	for i := range results {
		responses = append(responses, projectFormulation(&results[i]))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createFormulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload formulationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid formulation create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	meta := formulation.Metadata{
		Name:              payload.Name,
		Type:              payload.Type,
		AnimalID:          payload.AnimalID,
		StageID:           payload.StageID,
		TotalQuantity:     payload.TotalQuantity,
		TotalCost:         payload.TotalCost,
		Analysis:          datatypes.JSON(payload.Analysis),
		MeetsRequirements: payload.MeetsRequirements,
		Notes:             payload.Notes,
	}

	created, err := formulations.Create(ctx, meta, entriesFromRequest(payload.Ingredients))
	if err != nil {
		writeFormulationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectFormulation(created))
}

func showFormulation(w http.ResponseWriter, r *http.Request, id uint) {
	record, err := formulations.Get(r.Context(), id)
	if err != nil {
		writeFormulationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectFormulation(record))
}

func updateFormulation(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var payload formulationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid formulation update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	in := formulation.UpdateInput{ExpectedVersion: payload.ExpectedVersion}
	if patch := patchFromRequest(payload); patch != nil {
		in.Metadata = patch
	}
	if payload.Ingredients != nil {
		in.Entries = entriesFromRequest(*payload.Ingredients)
	}

	updated, err := formulations.Update(ctx, id, in)
	if err != nil {
		writeFormulationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectFormulation(updated))
}

func deleteFormulation(w http.ResponseWriter, r *http.Request, id uint) {
	if err := formulations.Delete(r.Context(), id); err != nil {
		writeFormulationError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func duplicateFormulation(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	// The body is optional; an absent name falls back to a derived copy name.
	var payload formulationDuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		applog.Debug(ctx, "invalid formulation duplicate payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	copy, err := formulations.Duplicate(ctx, id, payload.Name)
	if err != nil {
		writeFormulationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectFormulation(copy))
}

func toggleFormulationStatus(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var payload formulationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid formulation status payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	updated, err := formulations.ToggleStatus(ctx, id, payload.Active)
	if err != nil {
		writeFormulationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectFormulation(updated))
}

// writeFormulationError translates engine errors into HTTP responses.
func writeFormulationError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var mixErr *formulation.MixError
	if errors.As(err, &mixErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": mixErr.Error(),
			"sum":   mixErr.Sum,
		})
		return
	}

	var valErr *formulation.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": valErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, formulation.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "formulation not found")
	case errors.Is(err, formulation.ErrActiveFormulation):
		writeJSONError(w, http.StatusConflict, formulation.ErrActiveFormulation.Error())
	case errors.Is(err, formulation.ErrVersionConflict):
		writeJSONError(w, http.StatusConflict, "formulation was modified concurrently; reload and retry")
	default:
		applog.Error(ctx, "formulation operation failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to process formulation")
	}
}

func entriesFromRequest(items []ingredientEntryRequest) []formulation.Entry {
	entries := make([]formulation.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, formulation.Entry{
			IngredientID: item.IngredientID,
			Quantity:     item.Quantity,
			Percentage:   item.Percentage,
			Role:         item.Role,
			Essential:    item.Essential,
		})
	}
	return entries
}

func patchFromRequest(payload formulationUpdateRequest) *formulation.MetadataPatch {
	patch := &formulation.MetadataPatch{
		Name:              payload.Name,
		Type:              payload.Type,
		AnimalID:          payload.AnimalID,
		StageID:           payload.StageID,
		TotalQuantity:     payload.TotalQuantity,
		TotalCost:         payload.TotalCost,
		MeetsRequirements: payload.MeetsRequirements,
		Notes:             payload.Notes,
	}
	if len(payload.Analysis) > 0 {
		patch.Analysis = datatypes.JSON(payload.Analysis)
	}
	if patch.Name == nil && patch.Type == nil && patch.AnimalID == nil && patch.StageID == nil &&
		patch.TotalQuantity == nil && patch.TotalCost == nil && patch.MeetsRequirements == nil &&
		patch.Notes == nil && len(patch.Analysis) == 0 {
		return nil
	}
	return patch
}

func projectFormulation(record *models.Formulation) formulationResponse {
	rows := make([]formulationIngredientResponse, 0, len(record.Ingredients))
	for _, row := range record.Ingredients {
		name := ""
		if row.Ingredient != nil {
			name = row.Ingredient.Name
		}
		rows = append(rows, formulationIngredientResponse{
			ID:               row.ID,
			IngredientID:     row.IngredientID,
			IngredientName:   name,
			Quantity:         row.Quantity,
			Percentage:       row.Percentage,
			Proportion:       row.Proportion,
			CostContribution: row.CostContribution,
			CostPercentage:   row.CostPercentage,
			Role:             row.Role,
			Essential:        row.Essential,
			DisplayOrder:     row.DisplayOrder,
		})
	}

	return formulationResponse{
		ID:                record.ID,
		Name:              record.Name,
		Type:              record.Type,
		Status:            record.Status,
		AnimalID:          record.AnimalID,
		StageID:           record.StageID,
		TotalQuantity:     record.TotalQuantity,
		TotalCost:         record.TotalCost,
		CostPerUnit:       record.CostPerUnit,
		IngredientCount:   record.IngredientCount,
		MainIngredients:   record.MainIngredients,
		Analysis:          json.RawMessage(record.Analysis),
		MeetsRequirements: record.MeetsRequirements,
		Version:           record.Version,
		Notes:             record.Notes,
		Editable:          record.Editable(),
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
		Ingredients:       rows,
	}
}
