package internal

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"
)

// maxClimb bounds the process-tree walk. Twenty levels is far deeper than
// any realistic shell/wrapper nesting.
const maxClimb = 20

// DefaultAnchors are the executable-name substrings that mark a parent as a
// stable session anchor (AI runners first; Claude Code runs inside node).
var DefaultAnchors = []string{"node", "claude", "codex", "gemini"}

// ProcessTable is a point-in-time view of the OS process tree. Injected so
// tests can substitute a fixed tree.
type ProcessTable interface {
	// Parent returns the parent PID of pid, false if pid is unknown or
	// has no resolvable parent.
	Parent(pid int) (int, bool)
	// Name returns the executable name of pid, false if unknown.
	Name(pid int) (string, bool)
}

// StableAncestor climbs from pid toward the root of the process tree and
// returns the PID to anchor a session to. The walk is deterministic for a
// given snapshot:
//
//  1. first pass returns the first parent whose lowercase name contains any
//     anchor substring;
//  2. second pass returns the first parent named exactly "login";
//  3. otherwise the immediate parent of pid.
//
// Each pass climbs at most maxClimb levels.
func StableAncestor(table ProcessTable, pid int, anchors []string) (int, bool) {
	if len(anchors) == 0 {
		anchors = DefaultAnchors
	}

	if ppid, ok := climb(table, pid, func(name string) bool {
		for _, a := range anchors {
			if strings.Contains(name, a) {
				return true
			}
		}
		return false
	}); ok {
		return ppid, true
	}

	if ppid, ok := climb(table, pid, func(name string) bool {
		return name == "login"
	}); ok {
		return ppid, true
	}

	return table.Parent(pid)
}

func climb(table ProcessTable, pid int, match func(name string) bool) (int, bool) {
	current := pid
	for i := 0; i < maxClimb; i++ {
		ppid, ok := table.Parent(current)
		if !ok {
			return 0, false
		}
		name, ok := table.Name(ppid)
		if !ok {
			return 0, false
		}
		if match(strings.ToLower(name)) {
			return ppid, true
		}
		current = ppid
	}
	return 0, false
}

type processEntry struct {
	ppid int
	name string
}

// snapshotTable is a ProcessTable backed by one `ps` invocation.
type snapshotTable struct {
	procs map[int]processEntry
}

func (t *snapshotTable) Parent(pid int) (int, bool) {
	entry, ok := t.procs[pid]
	if !ok || entry.ppid <= 0 {
		return 0, false
	}
	return entry.ppid, true
}

func (t *snapshotTable) Name(pid int) (string, bool) {
	entry, ok := t.procs[pid]
	if !ok {
		return "", false
	}
	return entry.name, true
}

// SnapshotProcessTable reads the full process table once via ps. Returns
// ErrProcessInspection when the table cannot be read; callers should fall
// back to their own PID with a warning rather than fail.
func SnapshotProcessTable() (ProcessTable, error) {
	out, err := exec.Command("ps", "-axo", "pid=,ppid=,comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessInspection, err)
	}

	procs := make(map[int]processEntry)
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		var pid, ppid int
		if _, err := fmt.Sscanf(fields[0], "%d", &pid); err != nil {
			continue
		}
		if _, err := fmt.Sscanf(fields[1], "%d", &ppid); err != nil {
			continue
		}
		// comm may contain spaces; keep the basename of the first token's path
		name := strings.Join(fields[2:], " ")
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		procs[pid] = processEntry{ppid: ppid, name: name}
	}
	if len(procs) == 0 {
		return nil, fmt.Errorf("%w: empty process listing", ErrProcessInspection)
	}
	return &snapshotTable{procs: procs}, nil
}
