package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "rationbook/internal/log"
	"rationbook/internal/views/pages"
	"rationbook/models"
)

type productionStageWriteRequest struct {
	AnimalID    uint    `json:"animal_id"`
	Name        string  `json:"name"`
	MinWeightKg float64 `json:"min_weight_kg"`
	MaxWeightKg float64 `json:"max_weight_kg"`
	Description string  `json:"description"`
}

// ProductionStageResource handles REST-style interactions for production stages.
func ProductionStageResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if _, ok := currentUserID(r); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/production-stages")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listProductionStages(w, r)
		case http.MethodPost:
			createProductionStage(w, r)
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
	case http.MethodPut:
		updateProductionStage(w, r, id)
	case http.MethodDelete:
		deleteProductionStage(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listProductionStages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Order("animal_id asc, min_weight_kg asc")
	if animalID := pages.ParseUint(r.URL.Query().Get("animal_id")); animalID > 0 {
		query = query.Where("animal_id = ?", animalID)
	}

	var results []models.ProductionStage
	if err := query.Find(&results).Error; err != nil {
		applog.Error(ctx, "failed to list production stages", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load production stages")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func createProductionStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload productionStageWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	if payload.AnimalID == 0 {
		writeJSONError(w, http.StatusBadRequest, "animal_id is required")
		return
	}

	var animal models.Animal
	if err := database.WithContext(ctx).First(&animal, payload.AnimalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "animal does not exist")
			return
		}
		applog.Error(ctx, "failed to verify animal for stage", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create production stage")
		return
	}

	stage := models.ProductionStage{
		AnimalID:    payload.AnimalID,
		Name:        name,
		MinWeightKg: payload.MinWeightKg,
		MaxWeightKg: payload.MaxWeightKg,
		Description: strings.TrimSpace(payload.Description),
	}
	if err := database.WithContext(ctx).Create(&stage).Error; err != nil {
		applog.Error(ctx, "failed to create production stage", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create production stage")
		return
	}
	writeJSON(w, http.StatusCreated, stage)
}

func updateProductionStage(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var stage models.ProductionStage
	if err := database.WithContext(ctx).First(&stage, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load production stage for update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load production stage")
		return
	}

	var payload productionStageWriteRequest
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
		"name":          name,
		"min_weight_kg": payload.MinWeightKg,
		"max_weight_kg": payload.MaxWeightKg,
		"description":   strings.TrimSpace(payload.Description),
	}
	if err := database.WithContext(ctx).Model(&stage).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update production stage", "error", err, "id", id)
		writeJSONError(w, http.StatusBadRequest, "unable to update production stage")
		return
	}
	writeJSON(w, http.StatusOK, stage)
}

func deleteProductionStage(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var stage models.ProductionStage
	if err := database.WithContext(ctx).First(&stage, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load production stage for delete", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load production stage")
		return
	}

	var references int64
	if err := database.WithContext(ctx).Model(&models.Formulation{}).
		Where("stage_id = ?", id).Count(&references).Error; err != nil {
		applog.Error(ctx, "failed to count stage references", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete production stage")
		return
	}
	if references > 0 {
		writeJSONError(w, http.StatusConflict, "stage is referenced by existing formulations")
		return
	}

	if err := database.WithContext(ctx).Delete(&stage).Error; err != nil {
		applog.Error(ctx, "failed to delete production stage", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete production stage")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
