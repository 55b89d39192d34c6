package internal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOpenDatabase_MigratesFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clog.db")
	db, err := OpenDatabase(path)
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("user_version = %d, want %d", version, schemaVersion)
	}
}

func TestOpenDatabase_ReopenPreservesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clog.db")

	db, err := OpenDatabase(path)
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	store := NewStore(db)
	seen := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sess := &Session{
		SessionID: SessionID(500, seen),
		Ppid:      500, Name: "bot",
		FirstSeen: seen, LastSeen: seen, IsActive: true,
	}
	if err := store.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	store.Close()

	// Re-opening runs migrations again; they must be a no-op.
	db, err = OpenDatabase(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	store = NewStore(db)
	defer store.Close()

	got, err := store.ActiveSession(500)
	if err != nil {
		t.Fatalf("ActiveSession() error = %v", err)
	}
	if got == nil || got.Name != "bot" {
		t.Errorf("session after reopen = %+v, want name bot", got)
	}
}

func TestStore_ActiveSession_IgnoresInactive(t *testing.T) {
	store := newTestStore(t)
	seen := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	old := &Session{SessionID: "500_1", Ppid: 500, FirstSeen: seen, LastSeen: seen, IsActive: false}
	if err := store.CreateSession(old); err != nil {
		t.Fatal(err)
	}

	got, err := store.ActiveSession(500)
	if err != nil {
		t.Fatalf("ActiveSession() error = %v", err)
	}
	if got != nil {
		t.Errorf("ActiveSession() = %+v, want nil when only inactive rows exist", got)
	}
}

func TestStore_ActiveSession_MostRecentWins(t *testing.T) {
	store := newTestStore(t)
	t1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	if err := store.CreateSession(&Session{SessionID: "500_a", Ppid: 500, FirstSeen: t1, LastSeen: t1, IsActive: true}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateSession(&Session{SessionID: "500_b", Ppid: 500, FirstSeen: t2, LastSeen: t2, IsActive: true}); err != nil {
		t.Fatal(err)
	}

	got, err := store.ActiveSession(500)
	if err != nil {
		t.Fatal(err)
	}
	if got.SessionID != "500_b" {
		t.Errorf("ActiveSession() = %s, want the most recently seen", got.SessionID)
	}
}

func TestStore_ReplaceSession(t *testing.T) {
	store := newTestStore(t)
	t1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Hour)

	old := &Session{SessionID: "500_a", Ppid: 500, FirstSeen: t1, LastSeen: t1, IsActive: true}
	if err := store.CreateSession(old); err != nil {
		t.Fatal(err)
	}
	fresh := &Session{SessionID: "500_b", Ppid: 500, FirstSeen: t2, LastSeen: t2, IsActive: true}
	if err := store.ReplaceSession("500_a", fresh); err != nil {
		t.Fatalf("ReplaceSession() error = %v", err)
	}

	gotOld, _ := store.SessionByID("500_a")
	if gotOld == nil || gotOld.IsActive {
		t.Errorf("old session = %+v, want present but inactive", gotOld)
	}
	gotNew, _ := store.ActiveSession(500)
	if gotNew == nil || gotNew.SessionID != "500_b" {
		t.Errorf("active session = %+v, want 500_b", gotNew)
	}
}

func TestStore_ListEvents_OrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	sess := &Session{SessionID: "500_x", Ppid: 500, Name: "bot", FirstSeen: base, LastSeen: base, IsActive: true}
	if err := store.CreateSession(sess); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		e := &Event{
			Ppid: 500, Name: "bot", Timestamp: base.Add(time.Duration(i) * time.Minute),
			Directory: "/w", Message: string(rune('a' + i)), SessionID: "500_x",
		}
		if err := store.InsertEvent(e); err != nil {
			t.Fatal(err)
		}
	}

	events, err := store.ListEvents(Filters{Limit: 3})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i := 0; i < len(events)-1; i++ {
		if events[i].Timestamp.Before(events[i+1].Timestamp) {
			t.Errorf("events not most-recent-first: %v before %v", events[i].Timestamp, events[i+1].Timestamp)
		}
	}
	if events[0].Message != "e" {
		t.Errorf("newest message = %q, want e", events[0].Message)
	}
}

func TestStore_ListEvents_NoRepoIsNil(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	sess := &Session{SessionID: "500_x", Ppid: 500, Name: "bot", FirstSeen: base, LastSeen: base, IsActive: true}
	if err := store.CreateSession(sess); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertEvent(&Event{Ppid: 500, Name: "bot", Timestamp: base, Directory: "/w", Message: "m", SessionID: "500_x"}); err != nil {
		t.Fatal(err)
	}

	events, err := store.ListEvents(Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Repo != nil {
		t.Errorf("Repo = %+v, want nil for a non-repo event", events[0].Repo)
	}
}

func TestStore_TimestampRoundTrip(t *testing.T) {
	store := newTestStore(t)
	// Non-UTC input must come back as the same instant.
	loc := time.FixedZone("UTC-5", -5*3600)
	at := time.Date(2024, 3, 1, 9, 0, 0, 123456789, loc)

	sess := &Session{SessionID: "500_x", Ppid: 500, Name: "bot", FirstSeen: at, LastSeen: at, IsActive: true}
	if err := store.CreateSession(sess); err != nil {
		t.Fatal(err)
	}
	got, err := store.ActiveSession(500)
	if err != nil {
		t.Fatal(err)
	}
	if !got.FirstSeen.Equal(at) {
		t.Errorf("FirstSeen = %v, want same instant as %v", got.FirstSeen, at)
	}
}
