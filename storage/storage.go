// Package storage persists the wallet-facing artifacts of the pool: the
// notes recovered or created locally and the withdrawal requests
// observed on chain. It is a prefixed key-value store; the following
// prefixes are used:
//   - 'n/' for notes, keyed by commitment
//   - 'w/' for withdrawal requests, keyed by their request account
package storage

import (
	"errors"

	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	notePrefix       = []byte("n/")
	withdrawalPrefix = []byte("w/")
)

// ErrNotFound is returned when the requested artifact does not exist.
var ErrNotFound = errors.New("not found")

// Storage wraps the database with typed accessors for the stored
// artifacts.
type Storage struct {
	db db.Database
}

// New creates a new Storage instance over the given database.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}
