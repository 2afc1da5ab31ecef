package pages

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// BatchProductionReportIngredient captures the scaled contribution of a single ingredient.
type BatchProductionReportIngredient struct {
	Order          int
	IngredientName string
	Category       string
	Role           string
	RoleLabel      string
	BaseQuantity   float64
	FinalQuantity  float64
	Unit           string
}

// BatchProductionReportData aggregates the metadata required to render the mixing form.
type BatchProductionReportData struct {
	FormulationName   string
	FormulationStatus string
	Version           int
	TargetQuantity    float64
	TargetUnit        string
	BaseBatchQuantity float64
	BaseBatchUnit     string
	ScaleFactor       float64
	LotNumber         string
	RunDate           time.Time
	Ingredients       []BatchProductionReportIngredient
}

// FormatReportQuantity renders a quantity using two decimal places and a trailing unit.
func FormatReportQuantity(value float64, unit string) string {
	if strings.EqualFold(unit, "g") {
		return fmt.Sprintf("%.0f %s", value, unit)
	}
	return fmt.Sprintf("%.2f %s", value, unit)
}

// FormatReportDate renders the supplied time using a production-friendly layout.
func FormatReportDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02 Jan 2006")
}

// BatchProductionReport renders a printable mixing sheet for a scaled batch.
func BatchProductionReport(data BatchProductionReportData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<article class="batch-report">
<header>
<h1>Batch Production Report</h1>
<dl>
<dt>Formulation</dt><dd>%s</dd>
<dt>Status</dt><dd>%s</dd>
<dt>Lot number</dt><dd>%s</dd>
<dt>Run date</dt><dd>%s</dd>
<dt>Base batch</dt><dd>%s</dd>
<dt>Target batch</dt><dd>%s</dd>
<dt>Scale factor</dt><dd>%.4f</dd>
</dl>
</header>
<table>
<thead><tr><th>#</th><th>Ingredient</th><th>Category</th><th>Role</th><th>Base</th><th>Weigh out</th></tr></thead>
<tbody>`,
			templ.EscapeString(data.FormulationName),
			templ.EscapeString(StatusLabel(data.FormulationStatus)),
			templ.EscapeString(data.LotNumber),
			templ.EscapeString(FormatReportDate(data.RunDate)),
			templ.EscapeString(FormatReportQuantity(data.BaseBatchQuantity, data.BaseBatchUnit)),
			templ.EscapeString(FormatReportQuantity(data.TargetQuantity, data.TargetUnit)),
			data.ScaleFactor,
		)
		for _, item := range data.Ingredients {
			fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				item.Order,
				templ.EscapeString(item.IngredientName),
				templ.EscapeString(DefaultDash(item.Category)),
				templ.EscapeString(item.RoleLabel),
				templ.EscapeString(FormatReportQuantity(item.BaseQuantity, item.Unit)),
				templ.EscapeString(FormatReportQuantity(item.FinalQuantity, item.Unit)),
			)
		}
		b.WriteString(`</tbody></table></article>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
