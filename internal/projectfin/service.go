package projectfin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
	"github.com/nordlicht-erp/nordlicht/internal/params"
)

// LedgerQuerier defines the required read access to the accounting data.
type LedgerQuerier interface {
	PostedLinesWithDistribution(ctx context.Context, moveTypes []ledger.MoveType) ([]ledger.Line, error)
	EntriesByDimension(ctx context.Context, dimensionID int64) ([]ledger.Entry, error)
	EfficiencyFactors(ctx context.Context, workerIDs []int64) (map[int64]float64, error)
	ConfirmedOrdersByProject(ctx context.Context, projectID int64) ([]ledger.SalesOrder, error)
}

// ProjectRepository defines the required persistence behaviour for projects.
type ProjectRepository interface {
	Get(ctx context.Context, id int64) (Project, error)
	ListByDimensions(ctx context.Context, dimensionIDs []int64) ([]Project, error)
	ListActiveWithDimension(ctx context.Context) ([]Project, error)
	SaveFinancials(ctx context.Context, projectID int64, status DataStatus, f Financials) error
}

// Service orchestrates the aggregation passes.
type Service struct {
	projects ProjectRepository
	ledger   LedgerQuerier
	params   params.Provider
	codes    SkontoCodes
	logger   *slog.Logger
}

// NewService constructs an aggregation service instance.
func NewService(projects ProjectRepository, lq LedgerQuerier, provider params.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		projects: projects,
		ledger:   lq,
		params:   provider,
		codes:    DefaultSkontoCodes(),
		logger:   logger,
	}
}

// WithSkontoCodes overrides the cash-discount account prefixes.
func (s *Service) WithSkontoCodes(codes SkontoCodes) {
	s.codes = codes
}

// pass carries the data shared by every project in one aggregation run.
// Parameters and document lines are loaded once per pass, never per
// project, so a parameter change mid-run cannot split a batch.
type pass struct {
	customerLines []ledger.Line
	vendorLines   []ledger.Line
	params        params.Values
}

func (s *Service) beginPass(ctx context.Context) (pass, error) {
	values, err := s.params.Load(ctx)
	if err != nil {
		return pass{}, fmt.Errorf("load parameters: %w", err)
	}
	customer, err := s.ledger.PostedLinesWithDistribution(ctx, ledger.CustomerMoveTypes())
	if err != nil {
		return pass{}, fmt.Errorf("load customer lines: %w", err)
	}
	vendor, err := s.ledger.PostedLinesWithDistribution(ctx, ledger.VendorMoveTypes())
	if err != nil {
		return pass{}, fmt.Errorf("load vendor lines: %w", err)
	}
	return pass{customerLines: customer, vendorLines: vendor, params: values}, nil
}

// ComputeProject recomputes and persists the aggregates for one project.
// A project without a usable dimension is stored with zero aggregates and
// StatusNoDimension instead of failing.
func (s *Service) ComputeProject(ctx context.Context, projectID int64) (Project, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	run, err := s.beginPass(ctx)
	if err != nil {
		return Project{}, err
	}
	return s.computeOne(ctx, project, run)
}

func (s *Service) computeOne(ctx context.Context, project Project, run pass) (Project, error) {
	dimensionID, ok := project.Dimension()
	if !ok {
		project.Status = StatusNoDimension
		project.Financials = Financials{}
		if err := s.projects.SaveFinancials(ctx, project.ID, project.Status, project.Financials); err != nil {
			return Project{}, fmt.Errorf("save project %d: %w", project.ID, err)
		}
		return project, nil
	}

	entries, err := s.ledger.EntriesByDimension(ctx, dimensionID)
	if err != nil {
		return Project{}, fmt.Errorf("load entries for project %d: %w", project.ID, err)
	}
	factors, err := s.ledger.EfficiencyFactors(ctx, WorkerIDs(entries))
	if err != nil {
		return Project{}, fmt.Errorf("load worker factors for project %d: %w", project.ID, err)
	}
	orders, err := s.ledger.ConfirmedOrdersByProject(ctx, project.ID)
	if err != nil {
		return Project{}, fmt.Errorf("load orders for project %d: %w", project.ID, err)
	}

	revenue := AggregateRevenue(run.customerLines, dimensionID)
	vendor := AggregateVendorCosts(run.vendorLines, dimensionID)
	if n := revenue.MalformedLines + vendor.MalformedLines; n > 0 {
		s.logger.Warn("skipped lines with malformed distribution",
			slog.Int64("project_id", project.ID),
			slog.Int("lines", n))
	}

	financials := BuildFinancials(Inputs{
		Revenue:    revenue,
		Vendor:     vendor,
		Skonto:     ExtractSkonto(entries, s.codes),
		Labor:      ComputeLabor(entries, factors),
		OtherCosts: FilterOtherCosts(entries, s.codes),
		Orders:     orders,
		Params:     run.params,
	})
	if !financials.HasSalesOrders && project.ManualOrderAmountNet != 0 {
		financials.SaleOrderAmountNet = round2(project.ManualOrderAmountNet)
	}

	project.Status = StatusAvailable
	project.Financials = financials
	if err := s.projects.SaveFinancials(ctx, project.ID, project.Status, project.Financials); err != nil {
		return Project{}, fmt.Errorf("save project %d: %w", project.ID, err)
	}
	return project, nil
}

// refreshSet recomputes a list of projects within one pass. A failing
// project is logged and skipped; the pass continues. Returns the number
// of projects refreshed successfully.
func (s *Service) refreshSet(ctx context.Context, projects []Project) (int, error) {
	if len(projects) == 0 {
		return 0, nil
	}
	run, err := s.beginPass(ctx)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, project := range projects {
		if _, err := s.computeOne(ctx, project, run); err != nil {
			s.logger.Error("project refresh failed",
				slog.Int64("project_id", project.ID),
				slog.Any("error", err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// RefreshAll recomputes every active project carrying a dimension.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	projects, err := s.projects.ListActiveWithDimension(ctx)
	if err != nil {
		return 0, err
	}
	return s.refreshSet(ctx, projects)
}

// RefreshByIDs recomputes an explicit project selection. Unknown ids are
// logged and skipped.
func (s *Service) RefreshByIDs(ctx context.Context, projectIDs []int64) (int, error) {
	var projects []Project
	for _, id := range projectIDs {
		project, err := s.projects.Get(ctx, id)
		if err != nil {
			s.logger.Warn("refresh requested for unknown project",
				slog.Int64("project_id", id),
				slog.Any("error", err))
			continue
		}
		projects = append(projects, project)
	}
	return s.refreshSet(ctx, projects)
}

// RefreshByDimensions recomputes the projects linked to the given
// dimensions. Dimensions without a project are ignored.
func (s *Service) RefreshByDimensions(ctx context.Context, dimensionIDs []int64) (int, error) {
	if len(dimensionIDs) == 0 {
		return 0, nil
	}
	projects, err := s.projects.ListByDimensions(ctx, dimensionIDs)
	if err != nil {
		return 0, err
	}
	return s.refreshSet(ctx, projects)
}
