package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReconcileSweep is the task type for the nightly reconciliation sweep.
	TaskReconcileSweep = "capital:reconcile_sweep"
)

// NewReconcileSweepTask constructs the sweep task. The sweep walks every
// vendor, so it carries no payload.
func NewReconcileSweepTask() *asynq.Task {
	return asynq.NewTask(TaskReconcileSweep, nil)
}
