package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmcleod/redpost/client"
)

// taskTimeLayout is the queue's local-time format.
const taskTimeLayout = "2006-01-02 15:04:05"

// TaskRunner drains due tasks from a TaskFile through the platform client.
// It is the in-process counterpart of an external cron consuming the same
// file contract.
type TaskRunner struct {
	tasks     *TaskFile
	submitter Submitter
	logger    *slog.Logger
	now       func() time.Time
}

// RunnerOption configures a TaskRunner.
type RunnerOption func(*TaskRunner)

// WithRunnerClock overrides the wall clock, for tests.
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *TaskRunner) { r.now = now }
}

// WithRunnerLogger sets the structured logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *TaskRunner) { r.logger = logger }
}

// NewTaskRunner creates a runner submitting due tasks through c.
func NewTaskRunner(tasks *TaskFile, c Submitter, opts ...RunnerOption) *TaskRunner {
	r := &TaskRunner{
		tasks:     tasks,
		submitter: c,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunDue submits every pending task whose time has passed, marking each
// posted or failed. A failing task does not stop the remaining ones. Returns
// the number of tasks submitted successfully.
func (r *TaskRunner) RunDue(ctx context.Context) (int, error) {
	tasks, err := r.tasks.List()
	if err != nil {
		return 0, err
	}

	now := r.now()
	posted := 0
	for i, task := range tasks {
		if task.Status != TaskStatusPending {
			continue
		}
		due, err := time.ParseInLocation(taskTimeLayout, task.Time, time.Local)
		if err != nil {
			r.logger.Error("task has unparseable time", "index", i, "time", task.Time, "error", err)
			if err := r.tasks.SetStatus(i, TaskStatusFailed); err != nil {
				return posted, err
			}
			continue
		}
		if due.After(now) {
			continue
		}

		_, err = r.submitter.SubmitVideoNote(ctx, client.SubmitRequest{
			Title:       task.Title,
			VideoPath:   task.VideoPath,
			Description: task.Desc,
			Topics:      task.Topics,
		})
		status := TaskStatusPosted
		if err != nil {
			r.logger.Warn("scheduled task failed", "index", i, "title", task.Title, "error", err)
			status = TaskStatusFailed
		} else {
			posted++
		}
		if err := r.tasks.SetStatus(i, status); err != nil {
			return posted, err
		}
	}
	return posted, nil
}
