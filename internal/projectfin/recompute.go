package projectfin

import (
	"context"
	"encoding/json"
	"log/slog"
)

// recomputeChunkSize bounds one refresh batch so a bulk import touching
// thousands of dimensions cannot hold a single pass open indefinitely.
const recomputeChunkSize = 100

// LedgerMutation describes an accounting change that may affect project
// aggregates: the dimensions of created, updated, or deleted documents
// and entries. For deletions the mutation must be captured before the
// records disappear, while their distributions are still readable.
type LedgerMutation struct {
	DimensionIDs  []int64
	Distributions []DistributionRef
}

// DistributionRef is a raw allocation map captured from a mutated line.
type DistributionRef []byte

// CacheInvalidator bumps the derived-data cache version after a refresh.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Refresher recomputes the projects behind a set of dimensions.
type Refresher interface {
	RefreshByDimensions(ctx context.Context, dimensionIDs []int64) (int, error)
}

// Recomputer turns ledger mutations into targeted aggregation refreshes.
type Recomputer struct {
	refresher Refresher
	cache     CacheInvalidator
	logger    *slog.Logger
}

// NewRecomputer constructs a Recomputer. cache may be nil when no derived
// cache is in play.
func NewRecomputer(refresher Refresher, cache CacheInvalidator, logger *slog.Logger) *Recomputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recomputer{refresher: refresher, cache: cache, logger: logger}
}

// Apply resolves the dimensions touched by the mutation and refreshes the
// affected projects in chunks. A failing chunk is logged and skipped so
// one poisoned batch cannot stall the rest. Returns the total number of
// projects refreshed.
func (r *Recomputer) Apply(ctx context.Context, mutation LedgerMutation) (int, error) {
	ids := r.collectDimensions(mutation)
	if len(ids) == 0 {
		return 0, nil
	}

	refreshed := 0
	for start := 0; start < len(ids); start += recomputeChunkSize {
		end := start + recomputeChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		n, err := r.refresher.RefreshByDimensions(ctx, chunk)
		if err != nil {
			r.logger.Error("recompute chunk failed",
				slog.Int("chunk_size", len(chunk)),
				slog.Any("error", err))
			continue
		}
		refreshed += n
	}

	if r.cache != nil && refreshed > 0 {
		if err := r.cache.Bump(ctx); err != nil {
			r.logger.Warn("cache invalidation failed", slog.Any("error", err))
		}
	}
	return refreshed, nil
}

// collectDimensions merges the explicit dimension ids with every
// dimension referenced by a captured allocation map, de-duplicated.
func (r *Recomputer) collectDimensions(mutation LedgerMutation) []int64 {
	seen := make(map[int64]struct{}, len(mutation.DimensionIDs))
	var ids []int64
	add := func(id int64) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range mutation.DimensionIDs {
		add(id)
	}
	for _, raw := range mutation.Distributions {
		for _, id := range DimensionIDs(json.RawMessage(raw)) {
			add(id)
		}
	}
	return ids
}
