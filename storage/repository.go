// Package storage provides the storage abstraction layer for sealed credential records.
package storage

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrScopeNotFound is returned when a storage scope does not exist.
	ErrScopeNotFound = errors.New("scope not found")
)

// Repository defines the interface for sealed record storage. Records are
// grouped by scope (one bucket per scope) and addressed by type and ID.
type Repository interface {
	Put(scope string, recordType string, recordID string, envelope *Envelope) error
	Get(scope string, recordType string, recordID string) (*Envelope, error)
	List(scope string, recordType string) ([]string, error)
	Delete(scope string, recordType string, recordID string) error
}
