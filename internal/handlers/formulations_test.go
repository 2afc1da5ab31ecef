package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rationbook/internal/formulation"
	"rationbook/models"
)

func withFormulationTestDatabase(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	originalDB := database
	originalSvc := formulations
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Animal{},
		&models.ProductionStage{},
		&models.Formulation{},
		&models.FormulationIngredient{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	database = db
	formulations = formulation.NewService(db, formulation.ServiceConfig{})
	return db, func() {
		database = originalDB
		formulations = originalSvc
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func seedHandlerCatalog(t *testing.T, db *gorm.DB) (models.User, models.Ingredient, models.Ingredient) {
	t.Helper()
	user := models.User{Email: "operator@rationbook.app", PasswordHash: "hash"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	corn := models.Ingredient{Name: "Yellow Corn", Unit: "kg", CostPerUnit: 1.0, Available: true}
	soy := models.Ingredient{Name: "Soybean Meal", Unit: "kg", CostPerUnit: 1.5, Available: true}
	for _, ingredient := range []*models.Ingredient{&corn, &soy} {
		if err := db.Create(ingredient).Error; err != nil {
			t.Fatalf("failed to create ingredient: %v", err)
		}
	}
	return user, corn, soy
}

func formulationPayload(corn, soy models.Ingredient) formulationCreateRequest {
	return formulationCreateRequest{
		Name:          "Broiler Starter",
		Type:          models.TypeCustom,
		TotalQuantity: 100,
		TotalCost:     100,
		Ingredients: []ingredientEntryRequest{
			{IngredientID: corn.ID, Quantity: 60, Percentage: 60, Role: models.RolePrimary},
			{IngredientID: soy.ID, Quantity: 40, Percentage: 40, Role: models.RolePrimary},
		},
	}
}

func TestFormulationCreateRequiresAuthentication(t *testing.T) {
	_, cleanupDB := withFormulationTestDatabase(t)
	t.Cleanup(cleanupDB)
	_, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	req := httptest.NewRequest(http.MethodPost, "/app/api/formulations", bytes.NewReader([]byte("{}")))
	ctx, err := sessionManager.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	w := httptest.NewRecorder()
	FormulationResource(w, req.WithContext(ctx))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", w.Code)
	}
}

func TestFormulationCreateAndShow(t *testing.T) {
	db, cleanupDB := withFormulationTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)
	user, corn, soy := seedHandlerCatalog(t, db)

	body, _ := json.Marshal(formulationPayload(corn, soy))
	req := httptest.NewRequest(http.MethodPost, "/app/api/formulations", bytes.NewReader(body))
	req = authenticateRequest(t, sm, req, user.ID)
	w := httptest.NewRecorder()
	FormulationResource(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created formulationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Status != models.StatusDraft || !created.Editable {
		t.Fatalf("expected editable draft, got %+v", created)
	}
	if created.IngredientCount != 2 || len(created.Ingredients) != 2 {
		t.Fatalf("expected two ingredient rows, got %+v", created)
	}
	if created.Ingredients[0].CostContribution != 60 || created.Ingredients[0].CostPercentage != 60 {
		t.Fatalf("expected cost allocation in response, got %+v", created.Ingredients[0])
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/formulations/%d", created.ID), nil)
	req = authenticateRequest(t, sm, req, user.ID)
	w = httptest.NewRecorder()
	FormulationResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on show, got %d", w.Code)
	}
}

func TestFormulationCreateRejectsBadSum(t *testing.T) {
	db, cleanupDB := withFormulationTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)
	user, corn, soy := seedHandlerCatalog(t, db)

	payload := formulationPayload(corn, soy)
	payload.Ingredients[0].Percentage = 50
	payload.Ingredients[1].Percentage = 49
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/app/api/formulations", bytes.NewReader(body))
	req = authenticateRequest(t, sm, req, user.ID)
	w := httptest.NewRecorder()
	FormulationResource(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var response struct {
		Error string  `json:"error"`
		Sum   float64 `json:"sum"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if response.Sum != 99.0 {
		t.Fatalf("expected reported sum 99.0, got %v", response.Sum)
	}

	var count int64
	if err := db.Model(&models.Formulation{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count formulations: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected nothing persisted after rejection, found %d", count)
	}
}

func TestFormulationUpdateRejectsActive(t *testing.T) {
	db, cleanupDB := withFormulationTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)
	user, corn, soy := seedHandlerCatalog(t, db)

	body, _ := json.Marshal(formulationPayload(corn, soy))
	req := httptest.NewRequest(http.MethodPost, "/app/api/formulations", bytes.NewReader(body))
	req = authenticateRequest(t, sm, req, user.ID)
	w := httptest.NewRecorder()
	FormulationResource(w, req)
	var created formulationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	statusBody, _ := json.Marshal(formulationStatusRequest{Active: true})
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/app/api/formulations/%d/status", created.ID), bytes.NewReader(statusBody))
	req = authenticateRequest(t, sm, req, user.ID)
	w = httptest.NewRecorder()
	FormulationResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on activation, got %d: %s", w.Code, w.Body.String())
	}

	updateBody, _ := json.Marshal(map[string]any{"name": "Renamed"})
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/app/api/formulations/%d", created.ID), bytes.NewReader(updateBody))
	req = authenticateRequest(t, sm, req, user.ID)
	w = httptest.NewRecorder()
	FormulationResource(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for active formulation, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFormulationDuplicateReturnsDraftCopy(t *testing.T) {
	db, cleanupDB := withFormulationTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)
	user, corn, soy := seedHandlerCatalog(t, db)

	body, _ := json.Marshal(formulationPayload(corn, soy))
	req := httptest.NewRequest(http.MethodPost, "/app/api/formulations", bytes.NewReader(body))
	req = authenticateRequest(t, sm, req, user.ID)
	w := httptest.NewRecorder()
	FormulationResource(w, req)
	var created formulationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/app/api/formulations/%d/duplicate", created.ID), bytes.NewReader([]byte("{}")))
	req = authenticateRequest(t, sm, req, user.ID)
	w = httptest.NewRecorder()
	FormulationResource(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on duplicate, got %d: %s", w.Code, w.Body.String())
	}
	var copy formulationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &copy); err != nil {
		t.Fatalf("failed to decode duplicate response: %v", err)
	}
	if copy.ID == created.ID || copy.Status != models.StatusDraft {
		t.Fatalf("expected new draft copy, got %+v", copy)
	}
	if copy.Name != "Broiler Starter (Copy)" {
		t.Fatalf("expected derived copy name, got %q", copy.Name)
	}
}

func TestFormulationShowMissingReturnsNotFound(t *testing.T) {
	db, cleanupDB := withFormulationTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)
	user, _, _ := seedHandlerCatalog(t, db)

	req := httptest.NewRequest(http.MethodGet, "/app/api/formulations/9001", nil)
	req = authenticateRequest(t, sm, req, user.ID)
	w := httptest.NewRecorder()
	FormulationResource(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestFormulationListFiltersByStatus(t *testing.T) {
	db, cleanupDB := withFormulationTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)
	user, corn, soy := seedHandlerCatalog(t, db)

	body, _ := json.Marshal(formulationPayload(corn, soy))
	req := httptest.NewRequest(http.MethodPost, "/app/api/formulations", bytes.NewReader(body))
	req = authenticateRequest(t, sm, req, user.ID)
	w := httptest.NewRecorder()
	FormulationResource(w, req)

	req = httptest.NewRequest(http.MethodGet, "/app/api/formulations?status=active", nil)
	req = authenticateRequest(t, sm, req, user.ID)
	w = httptest.NewRecorder()
	FormulationResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", w.Code)
	}
	var results []formulationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no active formulations, got %d", len(results))
	}
}
