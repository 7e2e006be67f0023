// Package store persists the application state. The tracker talks to
// the StateStore port; SQLite and an in-memory store implement it.
package store

import (
	"context"

	"cheltuieli/internal/core"
)

// StateStore loads and saves the whole dataset. Load never fails on
// corrupt data: an undecodable snapshot is discarded and the seeded
// default state returned.
type StateStore interface {
	Load(ctx context.Context) (*core.State, error)
	Save(ctx context.Context, s *core.State) error
	Close() error
}
