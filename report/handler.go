package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nordlicht-erp/nordlicht/internal/platform/httpx"
	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
)

// Handler manages report endpoints.
type Handler struct {
	client  *Client
	builder *Builder
	logger  *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, builder *Builder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, builder: builder, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/projects/{projectID}.pdf", h.projectPDF)
	r.Get("/portfolio.pdf", h.portfolioPDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) projectPDF(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil || projectID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "invalid path", "project id must be a positive integer")
		return
	}

	bundle, err := h.builder.ProjectBundle(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, projectfin.ErrProjectNotFound) {
			httpx.Problem(w, http.StatusNotFound, "not found", "project does not exist")
			return
		}
		h.logger.Error("build project report", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "internal error", "report data could not be assembled")
		return
	}

	var buf bytes.Buffer
	if err := projectTemplate.Execute(&buf, bundle); err != nil {
		h.logger.Error("render project report template", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "internal error", "report could not be rendered")
		return
	}
	h.servePDF(w, r, buf.String(), fmt.Sprintf("project-%d.pdf", projectID), bundle)
}

func (h *Handler) portfolioPDF(w http.ResponseWriter, r *http.Request) {
	summary, err := h.builder.PortfolioSummary(r.Context())
	if err != nil {
		h.logger.Error("build portfolio report", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "internal error", "report data could not be assembled")
		return
	}

	var buf bytes.Buffer
	if err := portfolioTemplate.Execute(&buf, summary); err != nil {
		h.logger.Error("render portfolio report template", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "internal error", "report could not be rendered")
		return
	}
	h.servePDF(w, r, buf.String(), "portfolio.pdf", summary)
}

// servePDF streams the rendered PDF. When the renderer is unavailable the
// handler falls back to the raw report data as JSON instead of failing.
func (h *Handler) servePDF(w http.ResponseWriter, r *http.Request, html, filename string, fallback any) {
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Warn("render pdf, serving json fallback", slog.Any("error", err))
		httpx.JSON(w, http.StatusOK, fallback)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

var projectTemplate = template.Must(template.New("project").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Name}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 20px; } h2 { font-size: 14px; margin-top: 24px; }
table { border-collapse: collapse; width: 100%; }
td, th { border-bottom: 1px solid #ddd; padding: 4px 8px; text-align: right; }
td:first-child, th:first-child { text-align: left; }
.warn { color: #a33; }
</style></head><body>
<h1>{{.Name}}</h1>
<p>{{.ClientName}}{{if .Manager}} &middot; {{.Manager}}{{end}}</p>
{{if not .HasData}}<p class="warn">No accounting dimension linked; no financial data available.</p>{{end}}
<h2>Revenue</h2>
<table>
<tr><td>Invoiced (NET)</td><td>{{.InvoicedNet}}</td></tr>
<tr><td>Paid (NET)</td><td>{{.PaidNet}}</td></tr>
<tr><td>Outstanding (NET)</td><td>{{.OutstandingNet}}</td></tr>
<tr><td>Budget</td><td>{{.Budget}}</td></tr>
</table>
<h2>Costs</h2>
<table>
<tr><td>Vendor bills</td><td>{{.VendorBills}}</td><td>{{.VendorCostPct}}%</td></tr>
<tr><td>Labor ({{.HoursBooked}})</td><td>{{.LaborCosts}}</td><td>{{.LaborCostPct}}%</td></tr>
<tr><td>Other costs</td><td>{{.OtherCosts}}</td><td>{{.OtherCostPct}}%</td></tr>
<tr><th>Total</th><th>{{.TotalCosts}}</th><th></th></tr>
</table>
<h2>Profitability</h2>
<table>
<tr><td>Profit / loss (NET)</td><td>{{.ProfitLoss}}</td></tr>
<tr><td>Margin</td><td>{{.ProfitMarginPct}}%</td></tr>
<tr><td>Calculated P&amp;L</td><td>{{.CalculatedPL}}</td></tr>
<tr><td>Budget variance</td><td>{{.BudgetVariance}}</td></tr>
</table>
{{if .Trend}}
<h2>Recent periods</h2>
<table>
<tr><th>Period</th><th>Revenue</th><th>Costs</th><th>Profit</th></tr>
{{range .Trend}}<tr><td>{{.Period}}</td><td>{{.Revenue}}</td><td>{{.Costs}}</td><td>{{.Profit}}</td></tr>
{{end}}</table>
{{end}}
</body></html>`))

var portfolioTemplate = template.Must(template.New("portfolio").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Portfolio</title>
<style>
body { font-family: sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 20px; }
table { border-collapse: collapse; width: 100%; }
td, th { border-bottom: 1px solid #ddd; padding: 4px 8px; text-align: right; }
td:first-child, th:first-child { text-align: left; }
</style></head><body>
<h1>Portfolio summary</h1>
<p>{{.ProjectCount}} projects &middot; revenue {{.Revenue}} &middot; costs {{.Costs}} &middot; profit {{.Profit}}</p>
<table>
<tr><th>Project</th><th>Revenue</th><th>Costs</th><th>Profit</th><th>Margin</th></tr>
{{range .Rows}}<tr><td>{{.Name}}</td><td>{{.Revenue}}</td><td>{{.Costs}}</td><td>{{.Profit}}</td><td>{{if .HasData}}{{.MarginPct}}%{{else}}&mdash;{{end}}</td></tr>
{{end}}</table>
</body></html>`))
