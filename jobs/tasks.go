package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskSnapshotMonthly creates the monthly snapshot batch.
	TaskSnapshotMonthly = "snapshot:monthly"
	// TaskSnapshotQuarterly creates the quarterly snapshot batch.
	TaskSnapshotQuarterly = "snapshot:quarterly"
	// TaskPortfolioRefresh recomputes every active project's aggregates.
	TaskPortfolioRefresh = "projectfin:refresh"
)

// SnapshotPayload scopes a snapshot batch run.
type SnapshotPayload struct {
	// Type is "monthly" or "quarterly"; empty defaults by task type.
	Type string `json:"type,omitempty"`
}

// NewSnapshotTask constructs a periodic snapshot task.
func NewSnapshotTask(taskType string, payload SnapshotPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}

// NewPortfolioRefreshTask constructs a full-portfolio refresh task.
func NewPortfolioRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskPortfolioRefresh, nil, asynq.Queue(QueueDefault))
}
