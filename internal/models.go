package internal

import "time"

// Session represents one logical invoking context (a shell, an AI runner)
// tracked over time. Sessions are keyed by stable ancestor PID plus the time
// they were first seen, so a recycled PID never resurrects an old session.
type Session struct {
	SessionID string
	Ppid      int
	Name      string // empty until registered
	FirstSeen time.Time
	LastSeen  time.Time
	IsActive  bool
}

// Named reports whether the session has a registered display name.
func (s *Session) Named() bool {
	return s.Name != ""
}

// Event is a single logged entry. Events are immutable once written.
type Event struct {
	ID        int64
	Ppid      int
	Name      string // denormalized session name at write time
	Timestamp time.Time
	Directory string
	Message   string
	SessionID string
	Repo      *RepoInfo // nil when logged outside any repository
}

// RepoInfo is a snapshot of the git position of a working directory.
// The triple is all-or-nothing: either root and commit were both resolved,
// or the event carries no repository context at all. Branch alone may be
// empty (detached HEAD).
type RepoInfo struct {
	Root   string
	Branch string
	Commit string
}
