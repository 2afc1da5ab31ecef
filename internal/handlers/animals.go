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

type animalWriteRequest struct {
	Name        string `json:"name"`
	Species     string `json:"species"`
	Description string `json:"description"`
}

// AnimalResource handles REST-style interactions for animal records.
func AnimalResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if _, ok := currentUserID(r); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/animals")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listAnimals(w, r)
		case http.MethodPost:
			createAnimal(w, r)
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
		showAnimal(w, r, id)
	case http.MethodPut:
		updateAnimal(w, r, id)
	case http.MethodDelete:
		deleteAnimal(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listAnimals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var results []models.Animal
	if err := database.WithContext(ctx).Preload("Stages").Order("name asc").Find(&results).Error; err != nil {
		applog.Error(ctx, "failed to list animals", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load animals")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func showAnimal(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var animal models.Animal
	if err := database.WithContext(ctx).Preload("Stages").First(&animal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load animal", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load animal")
		return
	}
	writeJSON(w, http.StatusOK, animal)
}

func createAnimal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload animalWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	animal := models.Animal{
		Name:        name,
		Species:     strings.TrimSpace(payload.Species),
		Description: strings.TrimSpace(payload.Description),
	}
	if err := database.WithContext(ctx).Create(&animal).Error; err != nil {
		applog.Error(ctx, "failed to create animal", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create animal")
		return
	}
	writeJSON(w, http.StatusCreated, animal)
}

func updateAnimal(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var animal models.Animal
	if err := database.WithContext(ctx).First(&animal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load animal for update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load animal")
		return
	}

	var payload animalWriteRequest
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
		"name":        name,
		"species":     strings.TrimSpace(payload.Species),
		"description": strings.TrimSpace(payload.Description),
	}
	if err := database.WithContext(ctx).Model(&animal).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update animal", "error", err, "id", id)
		writeJSONError(w, http.StatusBadRequest, "unable to update animal")
		return
	}
	writeJSON(w, http.StatusOK, animal)
}

func deleteAnimal(w http.ResponseWriter, r *http.Request, id uint) {
	ctx := r.Context()
	var animal models.Animal
	if err := database.WithContext(ctx).First(&animal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load animal for delete", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load animal")
		return
	}

	var references int64
	if err := database.WithContext(ctx).Model(&models.Formulation{}).
		Where("animal_id = ?", id).Count(&references).Error; err != nil {
		applog.Error(ctx, "failed to count animal references", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete animal")
		return
	}
	if references > 0 {
		writeJSONError(w, http.StatusConflict, "animal is referenced by existing formulations")
		return
	}

	if err := database.WithContext(ctx).Delete(&animal).Error; err != nil {
		applog.Error(ctx, "failed to delete animal", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete animal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
