// Package store provides the credential store: an idempotent content->record
// map with insert-or-fetch semantics and a time-ordered listing. Backends
// share one contract so persistence stays pluggable behind the interface.
package store

import (
	"context"
	"errors"

	"vouch/internal/credential"
)

// ErrNotFound is returned when no record exists for the requested content.
var ErrNotFound = errors.New("credential not found")

// Store is the single data access contract for both services.
type Store interface {
	// InsertOrGet stores a new record for content, or returns the existing
	// one unchanged. The bool reports whether a record was newly inserted.
	// The id and timestamp are assigned exactly once by the winning insert;
	// later calls with the same content observe the winner's record and
	// their workerID argument is discarded.
	InsertOrGet(ctx context.Context, content, workerID string) (credential.Record, bool, error)

	// FindByContent retrieves a record by its canonical content, or ErrNotFound.
	FindByContent(ctx context.Context, content string) (credential.Record, error)

	// ListAll returns a snapshot of all records ordered by issue time
	// descending. Ties are broken by id descending so the order is stable.
	ListAll(ctx context.Context) ([]credential.Record, error)

	Close() error
}
