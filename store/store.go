// Package store persists synthesized templates and decomposed document
// content in SQLite and reconstructs them for display.
//
// The storage model is a generic 4-level owned hierarchy
// (Template→Section→Field, ContentRecord→Row→Value) instead of one table
// per document type, so a new document layout never needs a migration.
// Ownership cascades are performed by the application in strict
// leaf-to-root order; see Schema.
package store

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/formgrid/formgrid/idgen"
)

// Store wraps the formgrid database.
type Store struct {
	DB     *sql.DB
	logger *slog.Logger
	newID  idgen.Generator
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithIDGenerator sets the base ID generator, mainly for deterministic tests.
func WithIDGenerator(gen idgen.Generator) Option { return func(s *Store) { s.newID = gen } }

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{DB: db, logger: slog.Default(), newID: idgen.Default}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) id(prefix string) string {
	return prefix + s.newID()
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
