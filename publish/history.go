package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jmcleod/redpost/internal/util"
)

// Status is the terminal status of one publish attempt.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusScheduled Status = "scheduled"
	StatusFailed    Status = "failed"
)

// Outcome is one append-only publish-history record. Every publish attempt,
// including each retry, produces its own record.
type Outcome struct {
	ID           string `json:"id"`
	Time         string `json:"time"`
	Title        string `json:"title"`
	Status       Status `json:"status"`
	Note         string `json:"note"`
	VideoPath    string `json:"video_path"`
	Desc         string `json:"desc"`
	ScheduleTime string `json:"schedule_time,omitempty"`
}

// HistoryFile is a file-backed append-only recorder of publish outcomes.
// The file holds a JSON array; appends rewrite it atomically so readers
// never observe a partial record.
type HistoryFile struct {
	path string
	mu   sync.Mutex
}

var _ Recorder = (*HistoryFile)(nil)

// NewHistoryFile creates a recorder writing to path.
func NewHistoryFile(path string) *HistoryFile {
	return &HistoryFile{path: path}
}

// Append adds one outcome to the history.
func (h *HistoryFile) Append(outcome Outcome) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	outcomes, err := h.readLocked()
	if err != nil {
		return err
	}
	outcomes = append(outcomes, outcome)

	data, err := json.Marshal(outcomes)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := util.WriteFileAtomic(h.path, data, 0o600); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	return nil
}

// List returns all recorded outcomes in append order. A missing file yields
// an empty list.
func (h *HistoryFile) List() ([]Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readLocked()
}

func (h *HistoryFile) readLocked() ([]Outcome, error) {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Outcome{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var outcomes []Outcome
	if err := json.Unmarshal(data, &outcomes); err != nil {
		return nil, fmt.Errorf("parsing history file: %w", err)
	}
	return outcomes, nil
}
