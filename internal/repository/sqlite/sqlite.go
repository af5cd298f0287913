// Package sqlite implements the repository interfaces on SQLite via
// modernc.org/sqlite (pure Go, no CGo, cross-compiles anywhere).
//
// The analysis worker writes review rows into the same database file; the
// gateway creates all tables so either process can start first.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. Owned by the server; closed on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets concurrent request handlers read while a write is in
	// flight; foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the store is reachable. Used by the health endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			github_id     INTEGER NOT NULL UNIQUE,
			login         TEXT NOT NULL,
			avatar_url    TEXT NOT NULL DEFAULT '',
			access_token  TEXT NOT NULL DEFAULT '',
			last_login_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// The unique index on (user_id, lower(full_name)) is what makes
	// duplicate registration safe under concurrent writers: the
	// check-then-act in the service can race, the index cannot.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS repositories (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL REFERENCES users(id),
			full_name       TEXT NOT NULL,
			url             TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'active',
			added_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_checked_at DATETIME
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_repositories_user_fullname
			ON repositories(user_id, lower(full_name));
		CREATE INDEX IF NOT EXISTS idx_repositories_user_id
			ON repositories(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating repositories table: %w", err)
	}

	// Written by the analysis worker, read here. created_at must be an
	// ISO-like timestamp whose first ten characters are the YYYY-MM-DD
	// day; daily bucketing slices the day out of the raw text.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reviews (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			repo_full_name TEXT NOT NULL,
			pr_number      INTEGER NOT NULL,
			language       TEXT NOT NULL DEFAULT '',
			issues_count   INTEGER NOT NULL DEFAULT 0,
			review_comment TEXT NOT NULL DEFAULT '',
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_user_created
			ON reviews(user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_reviews_repo
			ON reviews(user_id, lower(repo_full_name));
	`)
	if err != nil {
		return fmt.Errorf("creating reviews table: %w", err)
	}

	return nil
}
