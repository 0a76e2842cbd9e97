package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
)

// ProjectSource provides the projects snapshots are taken of.
type ProjectSource interface {
	Get(ctx context.Context, id int64) (projectfin.Project, error)
	ListActiveWithDimension(ctx context.Context) ([]projectfin.Project, error)
}

// Repository defines the required snapshot persistence behaviour.
type Repository interface {
	Insert(ctx context.Context, s Snapshot) (Snapshot, error)
	LatestBefore(ctx context.Context, projectID int64, date time.Time) (*Snapshot, error)
	ListByProject(ctx context.Context, projectID int64, limit int) ([]Snapshot, error)
	ListByType(ctx context.Context, t Type, limit int) ([]Snapshot, error)
}

// Service creates snapshots and runs the periodic batches.
type Service struct {
	projects ProjectSource
	repo     Repository
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a snapshot service instance.
func NewService(projects ProjectSource, repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{projects: projects, repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// CreateSnapshot copies the project's current aggregates into a new
// record stamped with today's date. Projects without a usable dimension
// are refused with ErrNoDimension.
func (s *Service) CreateSnapshot(ctx context.Context, projectID int64, t Type) (Snapshot, error) {
	if !t.Valid() {
		return Snapshot{}, fmt.Errorf("snapshot: unknown type %q", t)
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshotProject(ctx, project, t)
}

func (s *Service) snapshotProject(ctx context.Context, project projectfin.Project, t Type) (Snapshot, error) {
	if _, ok := project.Dimension(); !ok {
		s.logger.Warn("snapshot refused, project has no accounting dimension",
			slog.Int64("project_id", project.ID))
		return Snapshot{}, projectfin.ErrNoDimension
	}

	f := project.Financials
	snap := Snapshot{
		ProjectID: project.ID,
		Type:      t,
		Date:      s.now().Truncate(24 * time.Hour),

		SaleOrderAmountNet:     f.SaleOrderAmountNet,
		CustomerInvoicedNet:    f.CustomerInvoicedNet,
		CustomerPaidNet:        f.CustomerPaidNet,
		CustomerOutstandingNet: f.CustomerOutstandingNet,
		VendorBillsTotalNet:    f.VendorBillsTotalNet,
		AdjustedVendorBills:    f.AdjustedVendorBills,
		CustomerSkonto:         f.CustomerSkonto,
		VendorSkonto:           f.VendorSkonto,
		HoursBooked:            f.HoursBooked,
		HoursBookedAdjusted:    f.HoursBookedAdjusted,
		LaborCosts:             f.LaborCosts,
		LaborCostsAdjusted:     f.LaborCostsAdjusted,
		OtherCostsNet:          f.OtherCostsNet,
		TotalCostsNet:          f.TotalCostsNet,
		TotalAllCostsNet:       f.TotalAllCostsNet,
		ProfitLossNet:          f.ProfitLossNet,
		CurrentCalculatedPL:    f.CurrentCalculatedPL,
	}

	prior, err := s.repo.LatestBefore(ctx, project.ID, snap.Date)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load prior snapshot for project %d: %w", project.ID, err)
	}
	applyDeltas(&snap, prior)
	applyProjection(&snap, project.EffectiveStart(), project.EndDate)

	stored, err := s.repo.Insert(ctx, snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("store snapshot for project %d: %w", project.ID, err)
	}
	return stored, nil
}

// CreatePeriodicSnapshots snapshots every active, dimension-linked
// project. Per-project failures are logged and skipped; the batch never
// aborts. Returns the number of snapshots created.
func (s *Service) CreatePeriodicSnapshots(ctx context.Context, t Type) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("snapshot: unknown type %q", t)
	}
	projects, err := s.projects.ListActiveWithDimension(ctx)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, project := range projects {
		if _, err := s.snapshotProject(ctx, project, t); err != nil {
			s.logger.Error("periodic snapshot failed",
				slog.Int64("project_id", project.ID),
				slog.String("type", string(t)),
				slog.Any("error", err))
			continue
		}
		created++
	}
	return created, nil
}

// History returns the most recent snapshots of one project, newest first.
func (s *Service) History(ctx context.Context, projectID int64, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 12
	}
	return s.repo.ListByProject(ctx, projectID, limit)
}
