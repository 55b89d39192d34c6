package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schemaVersion is the schema this build expects. Migrations below are
// additive only; opening an older database upgrades it in place.
const schemaVersion = 1

// migrations[i] brings the schema from version i to version i+1. Every
// statement must be safe to re-run (IF NOT EXISTS) so a partially applied
// step can be retried.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		ppid       INTEGER NOT NULL,
		name       TEXT,
		first_seen TEXT NOT NULL,
		last_seen  TEXT NOT NULL,
		is_active  INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		ppid        INTEGER NOT NULL,
		name        TEXT,
		timestamp   TEXT NOT NULL,
		directory   TEXT NOT NULL,
		message     TEXT NOT NULL,
		session_id  TEXT NOT NULL REFERENCES sessions(session_id),
		repo_root   TEXT,
		repo_branch TEXT,
		repo_commit TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_repo_ts ON events(repo_root, timestamp);
	CREATE INDEX IF NOT EXISTS idx_sessions_ppid_active ON sessions(ppid, is_active);
	`,
}

// OpenDatabase opens (creating if needed) a read-write SQLite database and
// brings its schema up to date.
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// migrate applies any pending schema steps inside a single transaction and
// bumps PRAGMA user_version. A database already at the current version is
// left untouched.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return &StoreError{Op: "migrate", Err: err}
	}
	if version >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return &StoreError{Op: "migrate", Err: err}
	}
	defer tx.Rollback()

	for v := version; v < schemaVersion; v++ {
		if _, err := tx.Exec(migrations[v]); err != nil {
			return &StoreError{Op: "migrate", Err: fmt.Errorf("step %d: %w", v+1, err)}
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return &StoreError{Op: "migrate", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "migrate", Err: err}
	}
	return nil
}
