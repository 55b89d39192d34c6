package internal

import (
	"os/exec"
	"strings"
)

// GitRunner executes a git query in dir and returns trimmed stdout. A false
// second return means the query failed (non-zero exit, git missing, etc.).
// Injected so tests can script repository states.
type GitRunner func(dir string, args ...string) (string, bool)

// ExecGitRunner runs git as a subprocess.
func ExecGitRunner(dir string, args ...string) (string, bool) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}

// DetectRepo resolves the repository context for a directory: worktree
// root, current branch, and full commit hash. Returns nil when dir is not
// inside a git worktree, or when any query after root resolution fails —
// the triple is all-or-nothing. Detached HEAD yields an empty branch.
// Never an error: absence of a repository is a normal outcome.
func DetectRepo(run GitRunner, dir string) *RepoInfo {
	root, ok := run(dir, "rev-parse", "--show-toplevel")
	if !ok || root == "" {
		return nil
	}
	branch, ok := run(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if !ok {
		return nil
	}
	if branch == "HEAD" {
		// detached HEAD; the context is still complete, branch stays empty
		branch = ""
	}
	commit, ok := run(dir, "rev-parse", "HEAD")
	if !ok || commit == "" {
		return nil
	}

	return &RepoInfo{Root: root, Branch: branch, Commit: commit}
}
