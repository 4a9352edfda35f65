// Package db owns the SQLite finding store: schema, migrations, and queries.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/triagekit/triagekit/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/triage.db.
// The baseDir parameter allows tests to use t.TempDir().
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "triage.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(database); err != nil {
		database.Close()
		return nil, err
	}

	if err := migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return database, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(database *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(database *sql.DB) error {
	version, err := GetUserVersion(database)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS findings (
		  id                TEXT PRIMARY KEY,
		  package_key       TEXT NOT NULL,
		  package_type      TEXT NOT NULL,
		  package_namespace TEXT,
		  package_name      TEXT NOT NULL,
		  package_version   TEXT NOT NULL,
		  tool              TEXT NOT NULL,
		  rule_id           TEXT NOT NULL,
		  level             TEXT,
		  message           TEXT NOT NULL,
		  file_path         TEXT NOT NULL DEFAULT '',
		  start_line        INTEGER NOT NULL DEFAULT 0,
		  object_path       TEXT NOT NULL,
		  actor             TEXT NOT NULL,
		  created_at        INTEGER NOT NULL,
		  updated_at        INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_findings_identity
		ON findings(package_key, tool, rule_id, file_path, start_line);

		CREATE INDEX IF NOT EXISTS idx_findings_package
		ON findings(package_key, updated_at DESC);

		CREATE INDEX IF NOT EXISTS idx_findings_tool
		ON findings(tool);

		CREATE TABLE IF NOT EXISTS import_runs (
		  id          TEXT PRIMARY KEY,
		  target      TEXT NOT NULL,
		  attempted   INTEGER NOT NULL,
		  imported    INTEGER NOT NULL,
		  skipped     INTEGER NOT NULL,
		  failed      INTEGER NOT NULL,
		  actor       TEXT NOT NULL,
		  started_at  INTEGER NOT NULL,
		  finished_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_import_runs_started
		ON import_runs(started_at DESC);
		`
		if _, err := database.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(database, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(database *sql.DB) error {
	var journalMode string
	if err := database.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(database *sql.DB) (int, error) {
	var version int
	if err := database.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(database *sql.DB, version int) error {
	_, err := database.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
