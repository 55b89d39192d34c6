package internal

import "time"

// DefaultListLimit bounds a listing when no explicit count is given.
const DefaultListLimit = 10

// QueryOptions are the user-supplied listing flags, already parsed.
type QueryOptions struct {
	RepoPath    string // --repo: explicit repository root filter
	FilterName  string // --filter: session display name
	TodayOnly   bool   // --today
	SessionOnly bool   // --session: current session's events only
	All         bool   // --all: disable implicit repo scoping
	Limit       int    // --list N; 0 means DefaultListLimit
}

// Ambient is the invocation context the planner scopes against.
type Ambient struct {
	RepoRoot  string // current repository root, empty outside any repo
	SessionID string // current session id, empty when none resolves
	Location  *time.Location
}

// Filters is the compiled predicate set handed to the store. Zero values
// mean "no constraint".
type Filters struct {
	RepoRoot  string
	Name      string
	SessionID string
	Since     time.Time // inclusive
	Until     time.Time // exclusive
	Limit     int
}

// Query plans and executes a listing in one step.
func (e *Engine) Query(opts QueryOptions, ambient Ambient, now time.Time) ([]Event, error) {
	return e.store.ListEvents(PlanQuery(opts, ambient, now))
}

// PlanQuery compiles flags plus ambient context into a single filter set.
//
// Scoping: without --all or an explicit --repo, an invocation inside a
// repository is implicitly scoped to it; outside any repository the view is
// global. An explicit --repo always wins. Session and name filters compose
// with repo scoping by AND.
//
// --today covers the invoker's local calendar day, converted to a UTC
// half-open range here at query time; stored timestamps stay UTC.
func PlanQuery(opts QueryOptions, ambient Ambient, now time.Time) Filters {
	f := Filters{
		Name:  opts.FilterName,
		Limit: opts.Limit,
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}

	switch {
	case opts.RepoPath != "":
		f.RepoRoot = opts.RepoPath
	case !opts.All && ambient.RepoRoot != "":
		f.RepoRoot = ambient.RepoRoot
	}

	if opts.SessionOnly {
		f.SessionID = ambient.SessionID
	}

	if opts.TodayOnly {
		loc := ambient.Location
		if loc == nil {
			loc = time.Local
		}
		local := now.In(loc)
		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		f.Since = midnight.UTC()
		f.Until = midnight.AddDate(0, 0, 1).UTC()
	}

	return f
}
