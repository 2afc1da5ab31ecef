package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"rationbook/internal/formulation"
	applog "rationbook/internal/log"
	"rationbook/internal/views/pages"
)

var (
	errBatchInvalidQuantity  = errors.New("reports: invalid target quantity")
	errBatchEmptyComposition = errors.New("reports: formulation has no ingredients")
	nowFunc                  = time.Now
)

// GenerateBatchProductionReport renders a mixing sheet for the selected
// formulation, scaled from its base batch to the requested target quantity.
func GenerateBatchProductionReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid submission.", http.StatusBadRequest)
		return
	}

	formulationID := pages.ParseUint(r.FormValue("formulation_id"))
	if formulationID == 0 {
		http.Error(w, "Select a formulation before running the report.", http.StatusBadRequest)
		return
	}

	targetQuantity, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("target_quantity")), 64)
	if err != nil || targetQuantity <= 0 {
		http.Error(w, "Provide a positive target quantity.", http.StatusBadRequest)
		return
	}

	report, err := buildBatchProductionReportData(r.Context(), formulationID, targetQuantity)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrInvalidDB):
			http.Error(w, "Reporting is unavailable because no database connection is configured.", http.StatusServiceUnavailable)
		case errors.Is(err, formulation.ErrNotFound):
			http.Error(w, "The selected formulation no longer exists.", http.StatusNotFound)
		case errors.Is(err, errBatchInvalidQuantity):
			http.Error(w, "The target quantity cannot be computed for this formulation.", http.StatusBadRequest)
		case errors.Is(err, errBatchEmptyComposition):
			http.Error(w, "The selected formulation has no ingredients to report.", http.StatusBadRequest)
		default:
			applog.Error(r.Context(), "failed to build batch production report", "error", err, "formulationID", formulationID)
			http.Error(w, "We were unable to generate the batch report. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.BatchProductionReport(report).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render batch production report", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func buildBatchProductionReportData(ctx context.Context, formulationID uint, targetQuantity float64) (pages.BatchProductionReportData, error) {
	if formulations == nil {
		return pages.BatchProductionReportData{}, gorm.ErrInvalidDB
	}

	record, err := formulations.Get(ctx, formulationID)
	if err != nil {
		return pages.BatchProductionReportData{}, err
	}
	if len(record.Ingredients) == 0 {
		return pages.BatchProductionReportData{}, errBatchEmptyComposition
	}

	baseTotal := record.TotalQuantity
	if baseTotal <= 0 {
		for _, row := range record.Ingredients {
			baseTotal += row.Quantity
		}
	}
	if baseTotal <= 0 {
		return pages.BatchProductionReportData{}, errBatchInvalidQuantity
	}

	scale := targetQuantity / baseTotal
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return pages.BatchProductionReportData{}, errBatchInvalidQuantity
	}

	unit := "kg"
	reportIngredients := make([]pages.BatchProductionReportIngredient, 0, len(record.Ingredients))
	for i, row := range record.Ingredients {
		name, category := "", ""
		if row.Ingredient != nil {
			name = row.Ingredient.Name
			category = row.Ingredient.Category
			if row.Ingredient.Unit != "" {
				unit = row.Ingredient.Unit
			}
		}
		reportIngredients = append(reportIngredients, pages.BatchProductionReportIngredient{
			Order:          i + 1,
			IngredientName: name,
			Category:       category,
			Role:           row.Role,
			RoleLabel:      pages.RoleLabel(row.Role),
			BaseQuantity:   row.Quantity,
			FinalQuantity:  row.Quantity * scale,
			Unit:           unit,
		})
	}

	runTime := nowFunc().UTC()
	data := pages.BatchProductionReportData{
		FormulationName:   record.Name,
		FormulationStatus: record.Status,
		Version:           record.Version,
		TargetQuantity:    targetQuantity,
		TargetUnit:        "kg",
		BaseBatchQuantity: baseTotal,
		BaseBatchUnit:     "kg",
		ScaleFactor:       scale,
		LotNumber:         fmt.Sprintf("FEED-%s-v%03d", runTime.Format("20060102"), record.Version),
		RunDate:           runTime,
		Ingredients:       reportIngredients,
	}

	return data, nil
}
