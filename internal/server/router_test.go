package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rationbook/internal/handlers"
)

func TestNewRouterRegistersHealthRoute(t *testing.T) {
	router := newRouter()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected /healthz to return 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
}

func TestNewRouterProtectsAPIRoutes(t *testing.T) {
	t.Cleanup(func() {
		handlers.Configure(nil, nil, nil)
	})

	router := newRouter()
	for _, path := range []string{
		"/app",
		"/app/api/formulations",
		"/app/api/ingredients",
		"/app/api/animals",
		"/app/api/reports/batch",
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusSeeOther {
			t.Fatalf("expected %s to redirect anonymous users, got %d", path, rr.Code)
		}
		if location := rr.Header().Get("Location"); location != "/login" {
			t.Fatalf("expected redirect to /login for %s, got %q", path, location)
		}
	}
}
