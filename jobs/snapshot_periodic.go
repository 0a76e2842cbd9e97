package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/nordlicht-erp/nordlicht/internal/jobs"
	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
)

// SnapshotService describes the behaviour required to run snapshot batches.
type SnapshotService interface {
	CreatePeriodicSnapshots(ctx context.Context, t snapshot.Type) (int, error)
}

// RefreshService recomputes project aggregates ahead of a snapshot run.
type RefreshService interface {
	RefreshAll(ctx context.Context) (int, error)
}

// CacheInvalidator bumps the dashboard cache after derived data changed.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// SnapshotJob coordinates the periodic snapshot workflow: refresh the
// aggregates first, then persist one snapshot per project.
type SnapshotJob struct {
	Snapshots SnapshotService
	Refresh   RefreshService
	Cache     CacheInvalidator
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewSnapshotJob constructs the job handler.
func NewSnapshotJob(snapshots SnapshotService, refresh RefreshService, cache CacheInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotJob{
		Snapshots: snapshots,
		Refresh:   refresh,
		Cache:     cache,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the clock for deterministic tests.
func (j *SnapshotJob) WithClock(clock func() time.Time) {
	if clock != nil {
		j.clock = clock
	}
}

// Handle executes a snapshot batch task.
func (j *SnapshotJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Snapshots == nil {
		return errors.New("snapshot job: dependencies not configured")
	}
	tracker := j.Metrics.Track(task.Type())
	runID := uuid.NewString()

	var payload SnapshotPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
	}
	snapType := snapshot.Type(payload.Type)
	if payload.Type == "" {
		switch task.Type() {
		case TaskSnapshotQuarterly:
			snapType = snapshot.TypeQuarterly
		default:
			snapType = snapshot.TypeMonthly
		}
	}
	if !snapType.Valid() {
		j.Logger.Warn("snapshot job: unknown type, skipping", slog.String("type", payload.Type))
		return tracker.End(asynq.SkipRetry)
	}

	started := j.clock()
	if j.Refresh != nil {
		refreshed, err := j.Refresh.RefreshAll(ctx)
		if err != nil {
			return tracker.End(err)
		}
		j.Metrics.AddRefreshedProjects(refreshed)
	}

	created, err := j.Snapshots.CreatePeriodicSnapshots(ctx, snapType)
	if err != nil {
		return tracker.End(err)
	}
	j.Metrics.AddSnapshots(string(snapType), created)

	if j.Cache != nil && created > 0 {
		if err := j.Cache.Bump(ctx); err != nil {
			j.Logger.Warn("snapshot job: cache bump failed", slog.Any("error", err))
		}
	}

	j.Logger.Info("snapshot batch completed",
		slog.String("run_id", runID),
		slog.String("type", string(snapType)),
		slog.Int("created", created),
		slog.Duration("took", j.clock().Sub(started)))
	return tracker.End(nil)
}

// PortfolioRefreshJob recomputes every active project on demand.
type PortfolioRefreshJob struct {
	Refresh RefreshService
	Cache   CacheInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPortfolioRefreshJob constructs the job handler.
func NewPortfolioRefreshJob(refresh RefreshService, cache CacheInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *PortfolioRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortfolioRefreshJob{Refresh: refresh, Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle executes a portfolio refresh task.
func (j *PortfolioRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Refresh == nil {
		return errors.New("portfolio refresh: dependencies not configured")
	}
	tracker := j.Metrics.Track(task.Type())

	refreshed, err := j.Refresh.RefreshAll(ctx)
	if err != nil {
		return tracker.End(err)
	}
	j.Metrics.AddRefreshedProjects(refreshed)

	if j.Cache != nil && refreshed > 0 {
		if err := j.Cache.Bump(ctx); err != nil {
			j.Logger.Warn("portfolio refresh: cache bump failed", slog.Any("error", err))
		}
	}
	j.Logger.Info("portfolio refresh completed", slog.Int("refreshed", refreshed))
	return tracker.End(nil)
}
