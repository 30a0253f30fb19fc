package publish

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/redpost/client"
)

type queueSubmitter struct {
	submitted []client.SubmitRequest
	err       error
}

func (s *queueSubmitter) ResolveTopic(context.Context, string) (*client.Topic, error) {
	return nil, nil
}

func (s *queueSubmitter) SubmitVideoNote(_ context.Context, req client.SubmitRequest) (*client.NoteHandle, error) {
	s.submitted = append(s.submitted, req)
	if s.err != nil {
		return nil, s.err
	}
	return &client.NoteHandle{ID: "note-1"}, nil
}

func setupRunner(t *testing.T, sub *queueSubmitter) (*TaskRunner, *TaskFile) {
	t.Helper()
	tasks := NewTaskFile(filepath.Join(t.TempDir(), "tasks.json"))
	now := func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	}
	return NewTaskRunner(tasks, sub, WithRunnerClock(now)), tasks
}

func TestRunDueSubmitsOnlyDueTasks(t *testing.T) {
	sub := &queueSubmitter{}
	runner, tasks := setupRunner(t, sub)

	require.NoError(t, tasks.Append(Task{Time: "2025-06-01 11:00:00", Title: "due", VideoPath: "/v/a.mp4", Desc: "a"}))
	require.NoError(t, tasks.Append(Task{Time: "2025-06-01 13:00:00", Title: "future", VideoPath: "/v/b.mp4", Desc: "b"}))

	posted, err := runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, posted)
	require.Len(t, sub.submitted, 1)
	assert.Equal(t, "due", sub.submitted[0].Title)

	got, err := tasks.List()
	require.NoError(t, err)
	assert.Equal(t, TaskStatusPosted, got[0].Status)
	assert.Equal(t, TaskStatusPending, got[1].Status)
}

func TestRunDueMarksFailed(t *testing.T) {
	sub := &queueSubmitter{err: assert.AnError}
	runner, tasks := setupRunner(t, sub)

	require.NoError(t, tasks.Append(Task{Time: "2025-06-01 11:00:00", Title: "due", VideoPath: "/v/a.mp4"}))

	posted, err := runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, posted)

	got, err := tasks.List()
	require.NoError(t, err)
	assert.Equal(t, TaskStatusFailed, got[0].Status)
}

func TestRunDueSkipsNonPending(t *testing.T) {
	sub := &queueSubmitter{}
	runner, tasks := setupRunner(t, sub)

	require.NoError(t, tasks.Append(Task{Time: "2025-06-01 11:00:00", Title: "done", VideoPath: "/v/a.mp4"}))
	require.NoError(t, tasks.SetStatus(0, TaskStatusPosted))

	posted, err := runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Empty(t, sub.submitted)
}

func TestRunDueBadTimeFailsTask(t *testing.T) {
	sub := &queueSubmitter{}
	runner, tasks := setupRunner(t, sub)

	require.NoError(t, tasks.Append(Task{Time: "soon", Title: "bad", VideoPath: "/v/a.mp4"}))

	posted, err := runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Empty(t, sub.submitted)

	got, err := tasks.List()
	require.NoError(t, err)
	assert.Equal(t, TaskStatusFailed, got[0].Status)
}
