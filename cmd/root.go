package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/iksnae/clog/internal"
	"github.com/spf13/cobra"
)

var (
	nameFlag    string
	listFlag    int
	allFlag     bool
	repoFlag    string
	filterFlag  string
	todayFlag   bool
	sessionFlag bool
	verbose     bool
	resetFlag   bool

	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd is the whole CLI: clog is a single command that records, names,
// or lists depending on its arguments.
var rootCmd = &cobra.Command{
	Use:   "clog [message]",
	Short: "Session-aware event logger for scripts and terminals",
	Long: `clog appends short messages with contextual metadata (timestamp,
working directory, git position) to a local database, attributed to a
stable session derived from your shell or runner process.

Quick Start:
  clog --name me           # register a name for this session
  clog "fixed the build"   # log a message
  clog                     # list recent entries (scoped to current repo)
  clog --all --today       # today's entries across every repo`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if resetFlag {
			return runReset()
		}

		cfg, err := internal.LoadConfig()
		if err != nil {
			return err
		}

		var message string
		if len(args) == 1 {
			message = args[0]
		}

		store, err := openStore(cfg, message, os.Stderr)
		if err != nil {
			return err
		}
		defer store.Close()

		engine := internal.NewEngine(store, cfg.SessionTTL())
		now := time.Now()

		if nameFlag != "" || message != "" {
			ppid := resolveAncestor(cfg, true)

			if nameFlag != "" {
				sess, err := engine.NameSession(ppid, nameFlag, now)
				if err != nil {
					return err
				}
				fmt.Printf("✓ Session registered as '%s' (PID: %d)\n", sess.Name, ppid)
				if message == "" {
					return nil
				}
			}

			if message != "" {
				if err := recordMessage(cfg, engine, ppid, message, now); err != nil {
					return err
				}
			}
			return nil
		}

		return listEntries(cfg, engine, now)
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&nameFlag, "name", "", "Register name for current session")
	rootCmd.Flags().IntVarP(&listFlag, "list", "l", 0, "List N recent entries")
	rootCmd.Flags().BoolVar(&allFlag, "all", false, "Show entries from all repos (not just current)")
	rootCmd.Flags().StringVar(&repoFlag, "repo", "", "Filter by specific repo root")
	rootCmd.Flags().StringVar(&filterFlag, "filter", "", "Filter by session name")
	rootCmd.Flags().BoolVar(&todayFlag, "today", false, "Show only today's entries")
	rootCmd.Flags().BoolVar(&sessionFlag, "session", false, "Show entries from current session")
	rootCmd.Flags().BoolVar(&resetFlag, "reset", false, "Clear the database and exit")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openStore opens the primary database, falling back once. When both fail
// and a message was pending, it is echoed to errw so nothing is lost
// silently.
func openStore(cfg *internal.Config, pendingMessage string, errw io.Writer) (*internal.Store, error) {
	primary, err := databasePath(cfg)
	if err != nil {
		return nil, err
	}

	store, err := internal.OpenDatabaseAt(primary, cfg.FallbackPath)
	if err != nil {
		var unavailable *internal.StoreUnavailableError
		if errors.As(err, &unavailable) && pendingMessage != "" {
			fmt.Fprintf(errw, "Your message was NOT recorded: %q\n", pendingMessage)
		}
		return nil, err
	}
	return store, nil
}

// resolveAncestor finds the stable ancestor PID, degrading to the current
// PID when the process table is unreadable.
func resolveAncestor(cfg *internal.Config, warn bool) int {
	return ancestorPID(cfg, internal.SnapshotProcessTable, os.Getpid(), warn, os.Stderr)
}

// ancestorPID is resolveAncestor with the snapshot and self PID injected.
func ancestorPID(cfg *internal.Config, snapshot func() (internal.ProcessTable, error), self int, warn bool, errw io.Writer) int {
	table, err := snapshot()
	if err != nil {
		if warn {
			fmt.Fprintln(errw, "Warning: Could not read process table, using current PID")
		}
		return self
	}
	ppid, ok := internal.StableAncestor(table, self, cfg.AnchorProcesses)
	if !ok {
		if warn {
			fmt.Fprintln(errw, "Warning: Could not resolve parent PID, using current PID")
		}
		return self
	}
	return ppid
}

func recordMessage(cfg *internal.Config, engine *internal.Engine, ppid int, message string, now time.Time) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	repo := internal.DetectRepo(internal.ExecGitRunner, cwd)

	_, err = engine.Record(ppid, message, cwd, repo, now)
	if err != nil {
		var naming *internal.NamingRequiredError
		if errors.As(err, &naming) {
			fmt.Fprintf(os.Stderr, "This appears to be a new session (PID: %d)\n", naming.Ppid)
			fmt.Fprintln(os.Stderr, "Please identify yourself by running:")
			fmt.Fprintln(os.Stderr, "  clog --name <your-identifier>")
			fmt.Fprintln(os.Stderr, "Then retry your command.")
		}
		return err
	}

	fmt.Println("✓ Logged")
	fmt.Println("Recent entries:")

	events, err := engine.Query(internal.QueryOptions{}, ambientContext(cfg, engine, internal.QueryOptions{}, now), now)
	if err != nil {
		return err
	}
	printEvents(os.Stdout, events, false)
	return nil
}

func listEntries(cfg *internal.Config, engine *internal.Engine, now time.Time) error {
	opts := internal.QueryOptions{
		RepoPath:    repoFlag,
		FilterName:  filterFlag,
		TodayOnly:   todayFlag,
		SessionOnly: sessionFlag,
		All:         allFlag,
		Limit:       listFlag,
	}
	if opts.Limit <= 0 {
		opts.Limit = cfg.DefaultLimit
	}

	events, err := engine.Query(opts, ambientContext(cfg, engine, opts, now), now)
	if err != nil {
		return err
	}
	printEvents(os.Stdout, events, verbose)
	return nil
}

// ambientContext gathers the current repo root and session id the planner
// scopes against. Every lookup here is best-effort: a listing must work
// from anywhere.
func ambientContext(cfg *internal.Config, engine *internal.Engine, opts internal.QueryOptions, now time.Time) internal.Ambient {
	ambient := internal.Ambient{Location: time.Local}

	if !opts.All && opts.RepoPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			if repo := internal.DetectRepo(internal.ExecGitRunner, cwd); repo != nil {
				ambient.RepoRoot = repo.Root
			}
		}
	}

	if opts.SessionOnly {
		ppid := resolveAncestor(cfg, false)
		if sess, err := engine.CurrentSession(ppid, now); err == nil && sess != nil {
			ambient.SessionID = sess.SessionID
		}
	}

	return ambient
}

func runReset() error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	path, err := databasePath(cfg)
	if err != nil {
		return err
	}
	if err := resetDatabase(path); err != nil {
		return err
	}
	fmt.Println("✓ Database cleared")
	return nil
}

// resetDatabase removes the database file and the -wal/-shm sidecars WAL
// mode leaves beside it. Missing files are fine; a reset of an empty
// installation succeeds.
func resetDatabase(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// databasePath resolves the database location: the configured db_path wins,
// otherwise the default per-user location.
func databasePath(cfg *internal.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return internal.DefaultDBPath()
}
