package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jmcleod/redpost/client"
	"github.com/jmcleod/redpost/internal/util"
)

// Task statuses as consumed by the external scheduler.
const (
	TaskStatusPending = "pending"
	TaskStatusPosted  = "posted"
	TaskStatusFailed  = "failed"
)

// Task is one queued scheduled publish. The file contract is consumed by an
// external scheduler; this package only appends and updates status.
type Task struct {
	Time      string         `json:"time"`
	VideoPath string         `json:"video_path"`
	Title     string         `json:"title"`
	Desc      string         `json:"desc"`
	Topics    []client.Topic `json:"topics"`
	Status    string         `json:"status"`
}

// TaskFile is the file-backed scheduled-task queue, a JSON array rewritten
// atomically on every mutation.
type TaskFile struct {
	path string
	mu   sync.Mutex
}

// NewTaskFile creates a task queue writing to path.
func NewTaskFile(path string) *TaskFile {
	return &TaskFile{path: path}
}

// Append queues one task. The status always starts pending regardless of
// what the caller set.
func (f *TaskFile) Append(task Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks, err := f.readLocked()
	if err != nil {
		return err
	}
	task.Status = TaskStatusPending
	tasks = append(tasks, task)
	return f.writeLocked(tasks)
}

// List returns all queued tasks in append order.
func (f *TaskFile) List() ([]Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLocked()
}

// SetStatus updates the status of the task at index.
func (f *TaskFile) SetStatus(index int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks, err := f.readLocked()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tasks) {
		return fmt.Errorf("task index %d out of range (%d tasks)", index, len(tasks))
	}
	tasks[index].Status = status
	return f.writeLocked(tasks)
}

func (f *TaskFile) readLocked() ([]Task, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parsing task file: %w", err)
	}
	return tasks, nil
}

func (f *TaskFile) writeLocked(tasks []Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	if err := util.WriteFileAtomic(f.path, data, 0o600); err != nil {
		return fmt.Errorf("writing task file: %w", err)
	}
	return nil
}
