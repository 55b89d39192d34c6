package internal

import (
	"path/filepath"
	"testing"
	"time"
)

// newTestStore opens a migrated store on a throwaway database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "clog.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	store := NewStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

// fakeTable is a fixed process tree keyed by PID.
type fakeTable map[int]fakeProc

type fakeProc struct {
	ppid int
	name string
}

func (f fakeTable) Parent(pid int) (int, bool) {
	p, ok := f[pid]
	if !ok || p.ppid <= 0 {
		return 0, false
	}
	return p.ppid, true
}

func (f fakeTable) Name(pid int) (string, bool) {
	p, ok := f[pid]
	if !ok {
		return "", false
	}
	return p.name, true
}

// scriptedGit answers rev-parse queries from a fixed map keyed by the first
// argument after rev-parse. Missing keys fail the query.
func scriptedGit(answers map[string]string) GitRunner {
	return func(dir string, args ...string) (string, bool) {
		if len(args) < 2 || args[0] != "rev-parse" {
			return "", false
		}
		out, ok := answers[args[1]]
		return out, ok
	}
}

// mustTime parses an RFC 3339 instant or fails the test.
func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("Failed to parse time %q: %v", s, err)
	}
	return parsed
}
