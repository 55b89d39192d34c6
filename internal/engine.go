package internal

import (
	"fmt"
	"time"
)

// DefaultSessionTTL is how long a session stays resolvable after its last
// activity. Past this window the next invocation from the same ancestor PID
// starts a fresh session.
const DefaultSessionTTL = 24 * time.Hour

// Engine owns session lifecycle and event recording rules. It holds no
// state of its own beyond the store handle; every invocation constructs
// one, uses it, and lets it go.
type Engine struct {
	store *Store
	ttl   time.Duration
}

// NewEngine creates an Engine over the given store. A non-positive ttl
// falls back to DefaultSessionTTL.
func NewEngine(store *Store, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Engine{store: store, ttl: ttl}
}

// SessionID derives the identifier for a session first seen at the given
// instant. Pure function of its inputs; replaying the same history on
// another machine yields the same ids.
func SessionID(ppid int, firstSeen time.Time) string {
	return fmt.Sprintf("%d_%d", ppid, firstSeen.Unix())
}

// Resolve maps an ancestor PID to its current session. A live session is
// touched and returned; an expired one is deactivated and replaced by a
// fresh unnamed session; an unknown PID gets a fresh session. The returned
// session always has IsActive set and LastSeen == now.
func (e *Engine) Resolve(ppid int, now time.Time) (*Session, error) {
	sess, err := e.store.ActiveSession(ppid)
	if err != nil {
		return nil, err
	}

	if sess != nil && now.Sub(sess.LastSeen) <= e.ttl {
		if err := e.store.TouchSession(sess.SessionID, now); err != nil {
			return nil, err
		}
		sess.LastSeen = now
		return sess, nil
	}

	fresh := &Session{
		SessionID: SessionID(ppid, now),
		Ppid:      ppid,
		FirstSeen: now,
		LastSeen:  now,
		IsActive:  true,
	}
	if sess != nil {
		LogDebug("session %s expired (last seen %s), starting %s",
			sess.SessionID, sess.LastSeen.Format(time.RFC3339), fresh.SessionID)
		if err := e.store.ReplaceSession(sess.SessionID, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if err := e.store.CreateSession(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// NameSession registers a display name for the ancestor PID's current
// session, creating the session first if needed. Calling it again with the
// same name is a no-op; a different name overwrites.
func (e *Engine) NameSession(ppid int, name string, now time.Time) (*Session, error) {
	sess, err := e.Resolve(ppid, now)
	if err != nil {
		return nil, err
	}
	if err := e.store.SetSessionName(sess.SessionID, name, now); err != nil {
		return nil, err
	}
	sess.Name = name
	sess.LastSeen = now
	return sess, nil
}

// Record appends an event attributed to the ancestor PID's current session.
// An unnamed session refuses the write with NamingRequiredError; nothing is
// persisted and the caller must register a name and retry.
func (e *Engine) Record(ppid int, message, directory string, repo *RepoInfo, now time.Time) (*Event, error) {
	sess, err := e.Resolve(ppid, now)
	if err != nil {
		return nil, err
	}
	if !sess.Named() {
		return nil, &NamingRequiredError{Ppid: ppid}
	}

	event := &Event{
		Ppid:      ppid,
		Name:      sess.Name,
		Timestamp: now,
		Directory: directory,
		Message:   message,
		SessionID: sess.SessionID,
		Repo:      repo,
	}
	if err := e.store.InsertEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// CurrentSession returns the live session for the ancestor PID without
// creating one, or nil when the PID is unknown or expired. Used by query
// scoping, which must never mint sessions as a side effect of listing.
func (e *Engine) CurrentSession(ppid int, now time.Time) (*Session, error) {
	sess, err := e.store.ActiveSession(ppid)
	if err != nil {
		return nil, err
	}
	if sess == nil || now.Sub(sess.LastSeen) > e.ttl {
		return nil, nil
	}
	return sess, nil
}
