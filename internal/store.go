package internal

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// timeLayout is the fixed-width RFC 3339 UTC form used for every stored
// timestamp. Fixed width keeps lexicographic order identical to
// chronological order, which the timestamp indexes rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Store provides session and event persistence over an open database.
// It only moves rows in and out; lifecycle rules live in Engine.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store instance.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ActiveSession returns the most recently seen active session for the given
// ancestor PID, or nil if none exists. Expiry is not applied here; the
// caller decides what "too old" means.
func (s *Store) ActiveSession(ppid int) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT session_id, ppid, name, first_seen, last_seen, is_active
		 FROM sessions
		 WHERE ppid = ? AND is_active = 1
		 ORDER BY last_seen DESC
		 LIMIT 1`, ppid)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	return sess, nil
}

// SessionByID returns the session with the given id, or nil if absent.
func (s *Store) SessionByID(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT session_id, ppid, name, first_seen, last_seen, is_active
		 FROM sessions WHERE session_id = ?`, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	return sess, nil
}

// CreateSession inserts a new session row.
func (s *Store) CreateSession(sess *Session) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, ppid, name, first_seen, last_seen, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.SessionID, sess.Ppid, nullString(sess.Name),
		formatTime(sess.FirstSeen), formatTime(sess.LastSeen), boolInt(sess.IsActive))
	if err != nil {
		return &StoreError{Op: "insert", Err: err}
	}
	return nil
}

// TouchSession advances a session's last_seen timestamp.
func (s *Store) TouchSession(sessionID string, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET last_seen = ? WHERE session_id = ?`,
		formatTime(now), sessionID)
	if err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	return nil
}

// SetSessionName registers or overwrites a session's display name and
// advances last_seen.
func (s *Store) SetSessionName(sessionID, name string, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET name = ?, last_seen = ? WHERE session_id = ?`,
		name, formatTime(now), sessionID)
	if err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	return nil
}

// DeactivateSession flips a session's is_active flag off. The row stays;
// historical events keep their attribution.
func (s *Store) DeactivateSession(sessionID string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET is_active = 0 WHERE session_id = ?`, sessionID)
	if err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	return nil
}

// ReplaceSession deactivates an expired session and inserts its successor
// in a single transaction, so a concurrent invocation never observes two
// active sessions for one PID.
func (s *Store) ReplaceSession(oldID string, fresh *Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE sessions SET is_active = 0 WHERE session_id = ?`, oldID); err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	if _, err := tx.Exec(
		`INSERT INTO sessions (session_id, ppid, name, first_seen, last_seen, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fresh.SessionID, fresh.Ppid, nullString(fresh.Name),
		formatTime(fresh.FirstSeen), formatTime(fresh.LastSeen), boolInt(fresh.IsActive)); err != nil {
		return &StoreError{Op: "insert", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	return nil
}

// InsertEvent appends one event row. The write is committed before return.
func (s *Store) InsertEvent(e *Event) error {
	var root, branch, commit any
	if e.Repo != nil {
		root = e.Repo.Root
		branch = nullString(e.Repo.Branch)
		commit = e.Repo.Commit
	}
	res, err := s.db.Exec(
		`INSERT INTO events (ppid, name, timestamp, directory, message, session_id,
		                     repo_root, repo_branch, repo_commit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Ppid, nullString(e.Name), formatTime(e.Timestamp), e.Directory,
		e.Message, e.SessionID, root, branch, commit)
	if err != nil {
		return &StoreError{Op: "insert", Err: err}
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// ListEvents returns events matching the filter set, most recent first,
// bounded by the filter's limit.
func (s *Store) ListEvents(f Filters) ([]Event, error) {
	var (
		conds []string
		args  []any
	)
	if f.RepoRoot != "" {
		conds = append(conds, "repo_root = ?")
		args = append(args, f.RepoRoot)
	}
	if f.Name != "" {
		conds = append(conds, "name = ?")
		args = append(args, f.Name)
	}
	if f.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, formatTime(f.Since))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "timestamp < ?")
		args = append(args, formatTime(f.Until))
	}

	query := `SELECT id, ppid, name, timestamp, directory, message, session_id,
	                 repo_root, repo_branch, repo_commit
	          FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e                    Event
			name                 sql.NullString
			ts                   string
			root, branch, commit sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Ppid, &name, &ts, &e.Directory,
			&e.Message, &e.SessionID, &root, &branch, &commit); err != nil {
			return nil, &StoreError{Op: "query", Err: err}
		}
		e.Name = name.String
		e.Timestamp, err = parseTime(ts)
		if err != nil {
			return nil, &StoreError{Op: "query", Err: fmt.Errorf("event %d: %w", e.ID, err)}
		}
		if root.Valid {
			e.Repo = &RepoInfo{Root: root.String, Branch: branch.String, Commit: commit.String}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	return events, nil
}

func scanSession(row *sql.Row) (*Session, error) {
	var (
		sess                Session
		name                sql.NullString
		firstSeen, lastSeen string
		active              int
	)
	err := row.Scan(&sess.SessionID, &sess.Ppid, &name, &firstSeen, &lastSeen, &active)
	if err != nil {
		return nil, err
	}
	sess.Name = name.String
	sess.IsActive = active != 0
	if sess.FirstSeen, err = parseTime(firstSeen); err != nil {
		return nil, err
	}
	if sess.LastSeen, err = parseTime(lastSeen); err != nil {
		return nil, err
	}
	return &sess, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
