// Package storage executes the derived persistence schemas against a
// relational database. It is the storage collaborator of the mapper
// core: table creation, row upserts, lookups by identifier, scans, and
// deletes, all driven by a schema.Schema. Its own errors (connectivity,
// constraint violations) pass through unmodified.
package storage

import (
	"context"
	"errors"

	"github.com/CaliLuke/go-relmap/schema"
)

// ErrNotFound is returned by Delete when no row matches the identifier.
// Lookups report absence with a nil row instead, matching read-miss
// semantics.
var ErrNotFound = errors.New("storage: row not found")

// Store is the relational storage collaborator. Implementations may
// block on I/O; cancellation and timeouts are carried by the context and
// whatever policy the implementation's driver applies.
type Store interface {
	// EnsureTable creates the schema's table and foreign-key constraints
	// if they do not exist yet. Tables referenced by foreign keys must be
	// ensured first.
	EnsureTable(ctx context.Context, s *schema.Schema) error

	// Upsert inserts the row or, when a row with the same primary key
	// exists, updates it. It returns the primary-key value of the row.
	Upsert(ctx context.Context, s *schema.Schema, values map[string]any) (any, error)

	// FindByID returns the row with the given primary-key value, or a nil
	// map when no such row exists.
	FindByID(ctx context.Context, s *schema.Schema, id any) (map[string]any, error)

	// FindAll returns every row of the schema's table.
	FindAll(ctx context.Context, s *schema.Schema) ([]map[string]any, error)

	// Delete removes the row with the given primary-key value. It returns
	// ErrNotFound when no row matches.
	Delete(ctx context.Context, s *schema.Schema, id any) error

	// Close releases the underlying database handle.
	Close() error
}
