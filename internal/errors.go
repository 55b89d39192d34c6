package internal

import (
	"errors"
	"fmt"
)

// ErrProcessInspection signals that the OS process table could not be read
// at all. Callers degrade to the current PID and keep going.
var ErrProcessInspection = errors.New("process table unavailable")

// NamingRequiredError is returned when an event would be recorded under a
// session that has no registered name yet. The event is not written; the
// caller must register a name and retry.
type NamingRequiredError struct {
	Ppid int
}

func (e *NamingRequiredError) Error() string {
	return fmt.Sprintf("session for PID %d has no name; register one with --name first", e.Ppid)
}

// StoreUnavailableError is returned when neither the primary nor the
// fallback database location could be opened. The caller is responsible
// for echoing any unrecorded message back to the user.
type StoreUnavailableError struct {
	Path string
	Err  error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: open %s: %v", e.Path, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// StoreError represents a failed database operation.
type StoreError struct {
	Op  string // "query", "insert", "update", "migrate"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
