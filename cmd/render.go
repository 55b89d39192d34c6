package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/clog/internal"
)

var (
	// Styles
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	branchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)

	repoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// printEvents renders events oldest-first within the returned page. The
// store hands them back most-recent-first; reversing keeps the newest line
// at the bottom of the terminal where the eye lands.
func printEvents(w io.Writer, events []internal.Event, verboseFormat bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if verboseFormat {
			printVerbose(w, &events[i])
		} else {
			printCompact(w, &events[i])
		}
	}
}

func printCompact(w io.Writer, e *internal.Event) {
	branch := ""
	if e.Repo != nil && e.Repo.Branch != "" {
		branch = " " + branchStyle.Render("("+truncateBranch(e.Repo.Branch)+")")
	}
	fmt.Fprintf(w, "%s [%s]%s %s\n",
		timeStyle.Render(e.Timestamp.Local().Format("15:04:05")),
		nameStyle.Render(displayName(e)),
		branch,
		e.Message)
}

func printVerbose(w io.Writer, e *internal.Event) {
	fmt.Fprintf(w, "[%s] %s (%s)\n",
		timeStyle.Render(e.Timestamp.Local().Format("2006-01-02 15:04:05")),
		nameStyle.Render(displayName(e)),
		shortenPath(e.Directory))

	if e.Repo != nil {
		branch := e.Repo.Branch
		if branch == "" {
			branch = "detached"
		}
		short := e.Repo.Commit
		if len(short) > 7 {
			short = short[:7]
		}
		fmt.Fprintf(w, "  %s\n", repoStyle.Render(fmt.Sprintf("repo: %s  branch: %s  commit: %s",
			shortenPath(e.Repo.Root), branch, short)))
	}

	fmt.Fprintf(w, "  %s\n\n", e.Message)
}

func displayName(e *internal.Event) string {
	if e.Name == "" {
		return "unknown"
	}
	return e.Name
}

// truncateBranch caps branch names at 20 characters for the compact format.
func truncateBranch(branch string) string {
	runes := []rune(branch)
	if len(runes) > 20 {
		return string(runes[:19]) + "…"
	}
	return branch
}

// shortenPath replaces the home directory prefix with ~.
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}
