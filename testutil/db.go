package testutil

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/clog/internal"
)

// CreateTestStore opens a migrated store backed by a throwaway database
// file. The file lives under t.TempDir, so cleanup is automatic.
func CreateTestStore(t *testing.T) *internal.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clog.db")
	db, err := internal.OpenDatabase(path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	store := internal.NewStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}
