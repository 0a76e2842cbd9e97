package dashhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	// Recompute endpoints fan out over the whole portfolio; keep them
	// rate limited per client.
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/dashboard", h.handleOverview)
	r.Get("/dashboard/trend", h.handleTrend)
	r.Get("/projects/{projectID}/burndown", h.handleBurnDown)
	r.Get("/projects/{projectID}/snapshots", h.handleSnapshotHistory)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/projects/refresh", h.handleRefresh)
		gr.Post("/projects/{projectID}/snapshots", h.handleCreateSnapshot)
		gr.Post("/ledger/mutations", h.handleLedgerMutation)
	})
}
