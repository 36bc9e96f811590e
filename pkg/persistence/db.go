// Package persistence provides SQLite-based storage for the assistant's
// business data (reservations, orders, caller messages), the tool audit log,
// and the tenant knowledge base backing retrieval.
//
// The store is constructed explicitly and injected; there is no package
// singleton. One Store serves one process; SQLite's single-writer model is
// enforced through the connection pool settings.
package persistence

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver, CGO-free

	"concierge/pkg/logx"
)

// Store wraps the database handle. All data access used by tools and the
// retriever goes through it.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (creating if needed) the SQLite database at path with WAL mode
// and a busy timeout, and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logx.NewLogger("persistence")}
	store.logger.Info("database opened: %s", path)
	return store, nil
}

// DB exposes the raw handle for the retrieval layer's FTS queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
