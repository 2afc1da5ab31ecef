package server

import (
	"context"
	"net/http"

	"rationbook/internal/handlers"
	applog "rationbook/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/signup", handlers.Signup)
	mux.HandleFunc("/logout", handlers.Logout)

	protect := func(h http.HandlerFunc) http.Handler {
		return handlers.RequireAuthentication(h)
	}

	mux.Handle("/app", protect(handlers.Dashboard))
	mux.Handle("/app/api/formulations", protect(handlers.FormulationResource))
	mux.Handle("/app/api/formulations/", protect(handlers.FormulationResource))
	mux.Handle("/app/api/ingredients", protect(handlers.IngredientResource))
	mux.Handle("/app/api/ingredients/", protect(handlers.IngredientResource))
	mux.Handle("/app/api/nutrients", protect(handlers.NutrientResource))
	mux.Handle("/app/api/nutrients/", protect(handlers.NutrientResource))
	mux.Handle("/app/api/animals", protect(handlers.AnimalResource))
	mux.Handle("/app/api/animals/", protect(handlers.AnimalResource))
	mux.Handle("/app/api/production-stages", protect(handlers.ProductionStageResource))
	mux.Handle("/app/api/production-stages/", protect(handlers.ProductionStageResource))
	mux.Handle("/app/api/reports/batch", protect(handlers.GenerateBatchProductionReport))
	mux.Handle("/app/api/tools/price-import", protect(handlers.ToolsImportPrices))
	mux.Handle("/app/", protect(handlers.Dashboard))
	applog.Debug(context.Background(), "protected routes registered", "prefix", "/app")

	mux.HandleFunc("/", handlers.Home)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir("web/static"))))
	return mux
}
