package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
)

type stubSnapshots struct {
	lastType snapshot.Type
	created  int
	err      error
}

func (s *stubSnapshots) CreatePeriodicSnapshots(_ context.Context, t snapshot.Type) (int, error) {
	s.lastType = t
	return s.created, s.err
}

type stubRefresh struct {
	refreshed int
	calls     int
	err       error
}

func (s *stubRefresh) RefreshAll(context.Context) (int, error) {
	s.calls++
	return s.refreshed, s.err
}

type stubCache struct {
	bumps int
}

func (s *stubCache) Bump(context.Context) error {
	s.bumps++
	return nil
}

func TestSnapshotJobDefaultsTypeFromTask(t *testing.T) {
	snaps := &stubSnapshots{created: 3}
	refresh := &stubRefresh{refreshed: 3}
	cache := &stubCache{}
	job := NewSnapshotJob(snaps, refresh, cache, nil, nil)

	task, err := NewSnapshotTask(TaskSnapshotQuarterly, SnapshotPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Equal(t, snapshot.TypeQuarterly, snaps.lastType)
	require.Equal(t, 1, refresh.calls)
	require.Equal(t, 1, cache.bumps)
}

func TestSnapshotJobPropagatesBatchError(t *testing.T) {
	snaps := &stubSnapshots{err: errors.New("db down")}
	job := NewSnapshotJob(snaps, nil, nil, nil, nil)

	task, err := NewSnapshotTask(TaskSnapshotMonthly, SnapshotPayload{})
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

func TestSnapshotJobSkipsMalformedPayload(t *testing.T) {
	job := NewSnapshotJob(&stubSnapshots{}, nil, nil, nil, nil)
	task := asynq.NewTask(TaskSnapshotMonthly, []byte("not json"))

	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPortfolioRefreshJob(t *testing.T) {
	refresh := &stubRefresh{refreshed: 7}
	cache := &stubCache{}
	job := NewPortfolioRefreshJob(refresh, cache, nil, nil)

	require.NoError(t, job.Handle(context.Background(), NewPortfolioRefreshTask()))
	require.Equal(t, 1, refresh.calls)
	require.Equal(t, 1, cache.bumps)
}
