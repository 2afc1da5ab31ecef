package handlers

import (
	"net/http"

	"rationbook/internal/views/pages"
)

// Home renders the primary workspace experience using templ components.
func Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Dashboard().Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Dashboard renders the workspace, swapping only the fragment for HTMX requests.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	var component = pages.Dashboard()
	if isHTMX(r) {
		component = pages.DashboardPartial()
	}
	renderComponent(w, r, component)
}
