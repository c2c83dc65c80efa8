// Package repository defines the session store interface and errors.
package repository

import (
	"context"

	"github.com/okian/tracksense/internal/domain/model"
	"github.com/okian/tracksense/internal/domain/scoring"
)

// MutateFunc edits a session in place. Returning an error discards the edit.
type MutateFunc func(s *model.Session) error

// Store provides keyed access to assessment sessions. Sessions returned by
// the store are copies; all writes go through Create, Update or SetResult.
type Store interface {
	// Create stores a new session. Returns ErrExists if the id is taken.
	Create(ctx context.Context, s *model.Session) error

	// Get returns the session with id, or ErrNotFound when it is unknown or
	// has expired.
	Get(ctx context.Context, id string) (*model.Session, error)

	// Update applies fn atomically with respect to other writes of the same
	// session and returns the stored result.
	Update(ctx context.Context, id string, fn MutateFunc) (*model.Session, error)

	// SetResult stores r unless a result is already present and returns the
	// result that ends up stored.
	SetResult(ctx context.Context, id string, r *scoring.Result) (*scoring.Result, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// Close releases background resources. Stored sessions stay readable.
	Close() error
}
