package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirName is the per-user directory holding the database, the cached
// device identity, and the optional config file.
const DataDirName = ".clog"

// dbFileName is the database file within the data directory.
const dbFileName = "clog.db"

// DataDir returns the per-user data directory (~/.clog).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DataDirName), nil
}

// DefaultDBPath returns the primary database location, creating its parent
// directory if needed.
func DefaultDBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, dbFileName), nil
}

// FallbackDBPath is tried once when the primary location is unwritable.
func FallbackDBPath() string {
	return filepath.Join(os.TempDir(), dbFileName)
}

// OpenDatabaseAt opens the database at the preferred path, falling back to
// the fallback path once. Both failing yields a StoreUnavailableError; the
// caller must make sure any pending message is not lost silently.
func OpenDatabaseAt(primary, fallback string) (*Store, error) {
	db, err := OpenDatabase(primary)
	if err == nil {
		return NewStore(db), nil
	}
	LogWarn("primary database %s unavailable (%v), trying %s", primary, err, fallback)

	db, ferr := OpenDatabase(fallback)
	if ferr != nil {
		return nil, &StoreUnavailableError{Path: primary, Err: err}
	}
	return NewStore(db), nil
}
