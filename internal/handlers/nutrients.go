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

type nutrientWriteRequest struct {
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

// NutrientResource handles REST-style interactions for nutrient definitions.
func NutrientResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if _, ok := currentUserID(r); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/nutrients")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listNutrients(w, r)
		case http.MethodPost:
			createNutrient(w, r)
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
		updateNutrient(w, r, id)
	case http.MethodDelete:
		deleteNutrient(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listNutrients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var results []models.Nutrient
	if err := database.WithContext(ctx).Order("name asc").Find(&results).Error; err != nil {
		applog.Error(ctx, "failed to list nutrients", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load nutrients")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func createNutrient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload nutrientWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	nutrient := models.Nutrient{
		Name:     name,
		Unit:     strings.TrimSpace(payload.Unit),
		Category: strings.TrimSpace(payload.Category),
		Notes:    strings.TrimSpace(payload.Notes),
	}
	if err := database.WithContext(ctx).Create(&nutrient).Error; err != nil {
		applog.Error(ctx, "failed to create nutrient", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create nutrient")
		return
	}
	writeJSON(w, http.StatusCreated, nutrient)
}

func updateNutrient(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var nutrient models.Nutrient
	if err := database.WithContext(ctx).First(&nutrient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load nutrient for update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load nutrient")
		return
	}

	var payload nutrientWriteRequest
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
		"name":     name,
		"unit":     strings.TrimSpace(payload.Unit),
		"category": strings.TrimSpace(payload.Category),
		"notes":    strings.TrimSpace(payload.Notes),
	}
	if err := database.WithContext(ctx).Model(&nutrient).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update nutrient", "error", err, "id", id)
		writeJSONError(w, http.StatusBadRequest, "unable to update nutrient")
		return
	}
	writeJSON(w, http.StatusOK, nutrient)
}

func deleteNutrient(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var nutrient models.Nutrient
	if err := database.WithContext(ctx).First(&nutrient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load nutrient for delete", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load nutrient")
		return
	}

	if err := database.WithContext(ctx).Delete(&nutrient).Error; err != nil {
		applog.Error(ctx, "failed to delete nutrient", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete nutrient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
