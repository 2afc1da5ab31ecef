package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHomeRendersDashboard(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	w := httptest.NewRecorder()
	Home(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "workspace-content") {
		t.Fatalf("expected workspace markup, got: %s", w.Body.String())
	}
}

func TestDashboardPartialForHTMX(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	Dashboard(w, req)

	if strings.Contains(w.Body.String(), "<html") {
		t.Fatalf("expected fragment without full document for HTMX: %s", w.Body.String())
	}
}
