package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration defines a database schema migration.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists all schema migrations to apply. These handle
// databases created before newer columns existed; fresh databases get
// the full schema from initialize.
var pendingMigrations = []Migration{
	// Provider linkage for background runs (added with the jobs poller)
	{"interactions", "provider_response_id", "TEXT DEFAULT ''"},
	{"interactions", "model", "TEXT DEFAULT ''"},
	// Token accounting columns (added for usage reporting)
	{"interactions", "prompt_tokens", "INTEGER DEFAULT 0"},
	{"interactions", "completion_tokens", "INTEGER DEFAULT 0"},
	// Market positioning summary (added with compare_competitor)
	{"competitions", "position", "TEXT DEFAULT ''"},
	// Cached website analysis (added with analyze_website)
	{"business_profiles", "analysis", "TEXT DEFAULT ''"},
}

// RunMigrations applies schema migrations for existing databases.
func (s *Store) RunMigrations() error {
	applied := 0
	skipped := 0

	for _, m := range pendingMigrations {
		// If the table doesn't exist in this DB, skip quietly.
		if !tableExists(s.db, m.Table) {
			skipped++
			continue
		}

		if columnExists(s.db, m.Table, m.Column) {
			skipped++
			continue
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := s.db.Exec(query); err != nil {
			// Column may already exist in a different form; not fatal.
			s.logger.Warn("migration failed",
				zap.String("table", m.Table),
				zap.String("column", m.Column),
				zap.Error(err))
			skipped++
			continue
		}

		s.logger.Info("migration applied",
			zap.String("table", m.Table),
			zap.String("column", m.Column))
		applied++
	}

	s.logger.Debug("schema migrations complete",
		zap.Int("applied", applied),
		zap.Int("skipped", skipped))
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(db *sql.DB, table string) bool {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		table,
	).Scan(&count)
	return err == nil && count > 0
}
