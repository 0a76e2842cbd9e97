// Package dashhttp exposes the dashboard, refresh, and snapshot actions
// over a JSON API.
package dashhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/nordlicht-erp/nordlicht/internal/dashboard"
	"github.com/nordlicht-erp/nordlicht/internal/platform/httpx"
	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
)

const requestTimeout = 10 * time.Second

// DashboardService defines the read-model contract used by the handler.
type DashboardService interface {
	GetDashboardData(ctx context.Context, companyID int64) (dashboard.Overview, error)
	GetTrendData(ctx context.Context, projectID *int64, period string, limit int) (dashboard.TrendData, error)
	GetBurnDownData(ctx context.Context, projectID int64) (dashboard.BurnDownData, error)
	Invalidate(ctx context.Context)
}

// RefreshService recomputes project aggregates on demand.
type RefreshService interface {
	RefreshAll(ctx context.Context) (int, error)
	RefreshByIDs(ctx context.Context, projectIDs []int64) (int, error)
}

// SnapshotService creates manual snapshots.
type SnapshotService interface {
	CreateSnapshot(ctx context.Context, projectID int64, t snapshot.Type) (snapshot.Snapshot, error)
	History(ctx context.Context, projectID int64, limit int) ([]snapshot.Snapshot, error)
}

// MutationSink applies ledger mutation events to the aggregates.
type MutationSink interface {
	Apply(ctx context.Context, mutation projectfin.LedgerMutation) (int, error)
}

// Handler coordinates the dashboard HTTP surface.
type Handler struct {
	logger    *slog.Logger
	dash      DashboardService
	refresh   RefreshService
	snapshots SnapshotService
	mutations MutationSink
	validate  *validator.Validate
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, dash DashboardService, refresh RefreshService, snapshots SnapshotService, mutations MutationSink) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		dash:      dash,
		refresh:   refresh,
		snapshots: snapshots,
		mutations: mutations,
		validate:  validator.New(),
	}
}

// overviewResponse bundles the landing page payload.
type overviewResponse struct {
	Overview dashboard.Overview  `json:"overview"`
	Trend    dashboard.TrendData `json:"trend"`
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var companyID int64
	if raw := r.URL.Query().Get("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid filter", "company_id must be an integer")
			return
		}
		companyID = id
	}

	var resp overviewResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		overview, err := h.dash.GetDashboardData(gctx, companyID)
		if err != nil {
			return err
		}
		resp.Overview = overview
		return nil
	})
	g.Go(func() error {
		trend, err := h.dash.GetTrendData(gctx, nil, "monthly", 12)
		if err != nil {
			return err
		}
		resp.Trend = trend
		return nil
	})
	if err := g.Wait(); err != nil {
		h.serverError(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	query := r.URL.Query()
	period := query.Get("period")
	if period == "" {
		period = "monthly"
	}
	if period != "monthly" && period != "quarterly" {
		httpx.Problem(w, http.StatusBadRequest, "invalid filter", "period must be monthly or quarterly")
		return
	}

	limit := 12
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 60 {
			httpx.Problem(w, http.StatusBadRequest, "invalid filter", "limit must be between 1 and 60")
			return
		}
		limit = n
	}

	var projectID *int64
	if raw := query.Get("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid filter", "project_id must be an integer")
			return
		}
		projectID = &id
	}

	trend, err := h.dash.GetTrendData(ctx, projectID, period, limit)
	if err != nil {
		h.serverError(w, "load trend", err)
		return
	}
	httpx.JSON(w, http.StatusOK, trend)
}

func (h *Handler) handleBurnDown(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	projectID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	data, err := h.dash.GetBurnDownData(ctx, projectID)
	if err != nil {
		if errors.Is(err, projectfin.ErrProjectNotFound) {
			httpx.Problem(w, http.StatusNotFound, "not found", "project does not exist")
			return
		}
		h.serverError(w, "load burn-down", err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

type refreshRequest struct {
	ProjectIDs []int64 `json:"project_ids" validate:"omitempty,dive,gt=0"`
}

type refreshResponse struct {
	Refreshed int `json:"refreshed"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid payload", "body must be valid JSON")
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", "project_ids must be positive integers")
		return
	}

	var refreshed int
	var err error
	if len(req.ProjectIDs) == 0 {
		refreshed, err = h.refresh.RefreshAll(r.Context())
	} else {
		refreshed, err = h.refresh.RefreshByIDs(r.Context(), req.ProjectIDs)
	}
	if err != nil {
		h.serverError(w, "refresh projects", err)
		return
	}
	h.dash.Invalidate(r.Context())
	httpx.JSON(w, http.StatusOK, refreshResponse{Refreshed: refreshed})
}

type createSnapshotRequest struct {
	Type string `json:"type" validate:"omitempty,oneof=monthly quarterly manual"`
}

func (h *Handler) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req createSnapshotRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid payload", "body must be valid JSON")
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", "type must be monthly, quarterly, or manual")
		return
	}
	snapType := snapshot.Type(req.Type)
	if req.Type == "" {
		snapType = snapshot.TypeManual
	}

	snap, err := h.snapshots.CreateSnapshot(r.Context(), projectID, snapType)
	if err != nil {
		switch {
		case errors.Is(err, projectfin.ErrProjectNotFound):
			httpx.Problem(w, http.StatusNotFound, "not found", "project does not exist")
		case errors.Is(err, projectfin.ErrNoDimension):
			httpx.Problem(w, http.StatusConflict, "no accounting dimension",
				"project is not linked to an accounting dimension, nothing to snapshot")
		default:
			h.serverError(w, "create snapshot", err)
		}
		return
	}
	h.dash.Invalidate(r.Context())
	httpx.JSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleSnapshotHistory(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.Problem(w, http.StatusBadRequest, "invalid filter", "limit must be a positive integer")
			return
		}
		limit = n
	}
	snaps, err := h.snapshots.History(r.Context(), projectID, limit)
	if err != nil {
		h.serverError(w, "load snapshot history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, snaps)
}

type ledgerMutationRequest struct {
	DimensionIDs  []int64  `json:"dimension_ids" validate:"omitempty,dive,gt=0"`
	Distributions []string `json:"distributions"`
}

func (h *Handler) handleLedgerMutation(w http.ResponseWriter, r *http.Request) {
	var req ledgerMutationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", "body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", "dimension_ids must be positive integers")
		return
	}

	mutation := projectfin.LedgerMutation{DimensionIDs: req.DimensionIDs}
	for _, raw := range req.Distributions {
		mutation.Distributions = append(mutation.Distributions, projectfin.DistributionRef(raw))
	}

	refreshed, err := h.mutations.Apply(r.Context(), mutation)
	if err != nil {
		h.serverError(w, "apply ledger mutation", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, refreshResponse{Refreshed: refreshed})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "invalid path", "project id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) serverError(w http.ResponseWriter, action string, err error) {
	h.logger.Error(action+" failed", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "internal error", "the request could not be completed")
}
