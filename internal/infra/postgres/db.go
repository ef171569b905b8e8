package postgres

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB manages a single cached *sql.DB keyed by DSN. Reopening with a different
// DSN closes the previous handle.
type DB struct {
	mu  sync.Mutex
	dsn string
	db  *sql.DB
}

// NewDB creates an empty connection manager.
func NewDB() *DB {
	return &DB{}
}

// Get opens (or reuses) the database handle for the given DSN. The connection
// is not verified here; callers that need liveness should ping or run a query.
func (m *DB) Get(dsn string) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil && m.dsn == dsn {
		return m.db, nil
	}
	if m.db != nil {
		_ = m.db.Close()
		m.db = nil
		m.dsn = ""
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// This is a small, low-throughput control plane table.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	m.db = db
	m.dsn = dsn
	return m.db, nil
}

// Close releases the cached handle.
func (m *DB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.dsn = ""
	return err
}

// VerifySchema creates the tokens table and its index if they do not exist.
func VerifySchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ddl1 := `CREATE TABLE IF NOT EXISTS tokens (
		token TEXT PRIMARY KEY,
		rate_limit INTEGER NOT NULL DEFAULT 60,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		comment TEXT
	);`
	ddl2 := `CREATE INDEX IF NOT EXISTS idx_tokens_created_at ON tokens (created_at);`
	if _, err := db.ExecContext(ctx, ddl1); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, ddl2); err != nil {
		return err
	}
	return nil
}
