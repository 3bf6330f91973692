// Package store provides SQLite-backed persistence for users, business
// profiles, competition entries, and agent interactions.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store wraps a single SQLite database. All access is serialized
// through one connection; busy_timeout covers concurrent writers from
// other processes.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists. The returned Store is safe for concurrent use.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY churn between our own goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Warn("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	s := &Store{db: db, logger: logger.Named("store")}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	usersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	profilesTable := `
	CREATE TABLE IF NOT EXISTS business_profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		website_url TEXT DEFAULT '',
		industry TEXT DEFAULT '',
		description TEXT DEFAULT '',
		analysis TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_user ON business_profiles(user_id);
	`

	competitionsTable := `
	CREATE TABLE IF NOT EXISTS competitions (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES business_profiles(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		website_url TEXT DEFAULT '',
		summary TEXT DEFAULT '',
		strengths TEXT DEFAULT '',
		weaknesses TEXT DEFAULT '',
		position TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_competitions_profile ON competitions(profile_id);
	`

	interactionsTable := `
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		profile_id TEXT DEFAULT '',
		agent TEXT NOT NULL,
		tool TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		request TEXT DEFAULT '',
		response TEXT DEFAULT '',
		error TEXT DEFAULT '',
		provider_response_id TEXT DEFAULT '',
		model TEXT DEFAULT '',
		prompt_tokens INTEGER DEFAULT 0,
		completion_tokens INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_profile ON interactions(profile_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_status ON interactions(status);
	`

	for _, table := range []string{usersTable, profilesTable, competitionsTable, interactionsTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
