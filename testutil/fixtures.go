package testutil

import (
	"testing"
	"time"

	"github.com/iksnae/clog/internal"
)

// SeedSession inserts an active named session and returns it.
func SeedSession(t *testing.T, store *internal.Store, ppid int, name string, seen time.Time) *internal.Session {
	t.Helper()
	sess := &internal.Session{
		SessionID: internal.SessionID(ppid, seen),
		Ppid:      ppid,
		Name:      name,
		FirstSeen: seen,
		LastSeen:  seen,
		IsActive:  true,
	}
	if err := store.CreateSession(sess); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}
	return sess
}

// SeedEvent inserts one event attributed to the given session.
func SeedEvent(t *testing.T, store *internal.Store, sess *internal.Session, message string, at time.Time, repo *internal.RepoInfo) *internal.Event {
	t.Helper()
	event := &internal.Event{
		Ppid:      sess.Ppid,
		Name:      sess.Name,
		Timestamp: at,
		Directory: "/tmp/work",
		Message:   message,
		SessionID: sess.SessionID,
		Repo:      repo,
	}
	if err := store.InsertEvent(event); err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}
	return event
}
