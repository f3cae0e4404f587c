package run

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/config"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/database"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/execlog"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/executors"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/orchestrator"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/ratelimit"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/router"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/services/auth"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// defaultRateLimit spaces dispatches to one platform when neither the
// config file nor a per-platform override says otherwise.
const defaultRateLimit = time.Second

// NewCommand returns the "run" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the execution daemon",
		Long: `Run the execution daemon: recover actions interrupted by a previous
crash, then claim, rate-limit, dispatch, and retry queued actions until
interrupted.

Platform executors register themselves at startup; a build without any
can still execute with --dry-run, which dispatches every action to a
simulated executor that never touches a platform.

Examples:
  occ run
  occ run --workers 4 --max-attempts 5
  occ run --dry-run --watch`,
		RunE:         runDaemon,
		SilenceUsage: true,
	}

	cmd.Flags().Int("workers", 0, "Concurrent executor workers (default 2)")
	cmd.Flags().Int("max-attempts", 0, "Execution attempts per action before terminal failure (default 3)")
	cmd.Flags().Duration("dispatch-timeout", 30*time.Second, "Upper bound on a single executor call")
	cmd.Flags().Bool("dry-run", false, "Dispatch to the simulated executor instead of platform executors")
	cmd.Flags().Bool("watch", false, "Show the live execution TUI instead of log output")
	cmd.Flags().String("db", "", "Database path (overrides config)")

	return cmd
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Workers
	}
	if workers <= 0 {
		workers = orchestrator.DefaultWorkers
	}
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	if maxAttempts <= 0 {
		maxAttempts = cfg.MaxAttempts
	}
	dispatchTimeout, _ := cmd.Flags().GetDuration("dispatch-timeout")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	watchTUI, _ := cmd.Flags().GetBool("watch")

	tokens := auth.DefaultStore()
	if dryRun {
		executors.RegisterSimulated(executors.SimulatedOptions{})
		tokens = auth.NewMockStore()
	}
	// Every routed platform needs an executor before the first claim, or
	// its actions would burn attempts on configuration errors.
	for _, platform := range executors.Platforms() {
		if !executors.Registered(platform) {
			return fmt.Errorf("no executor registered for platform %q; use --dry-run to dispatch to the simulated executor", platform)
		}
	}

	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.DatabasePath
	}
	store, repo, err := openStores(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	defer repo.Close()

	delay, err := cfg.DefaultDelay(defaultRateLimit)
	if err != nil {
		return err
	}
	overrides, err := cfg.DelayOverrides()
	if err != nil {
		return err
	}
	limiter := ratelimit.New(delay)
	for platform, d := range overrides {
		limiter.SetLimit(platform, d)
	}

	stats := func() *queue.Stats {
		s, err := store.Stats()
		if err != nil {
			return nil
		}
		return s
	}
	hub := execlog.NewHub()
	hub.SetStats(stats)
	repo.AttachFeed(hub)

	logger := log.New(cmd.ErrOrStderr(), "[occ] ", log.LstdFlags)
	logf := logger.Printf
	if watchTUI {
		// The TUI owns the terminal; the feed replaces log lines.
		logf = func(string, ...any) {}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(store, repo, limiter, router.New(tokens, dispatchTimeout), orchestrator.Config{
		Workers:     workers,
		MaxAttempts: maxAttempts,
	}, logf)

	if dbPath == "" {
		dbPath, _ = database.DefaultPath()
	}
	ready := executors.List()
	sort.Strings(ready)
	logger.Printf("daemon starting: %d worker(s), dispatch timeout %s, database %s", workers, dispatchTimeout, dbPath)
	logger.Printf("executors ready: %s", strings.Join(ready, ", "))
	if dryRun {
		logger.Printf("dry run: every dispatch goes to the simulated executor")
	}

	if !watchTUI {
		if err := orch.Run(ctx); err != nil {
			return err
		}
		logger.Printf("shutdown complete")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return orch.Run(gctx)
	})
	g.Go(func() error {
		// Quitting the TUI shuts the daemon down too.
		defer stop()
		return tui.RunWatch(gctx, hub, stats)
	})
	return g.Wait()
}

func openStores(path string) (*queue.SQLiteStore, *execlog.SQLiteRepository, error) {
	if path == "" {
		store, err := queue.Open()
		if err != nil {
			return nil, nil, err
		}
		repo, err := execlog.Open()
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, repo, nil
	}

	store, err := queue.OpenAt(path)
	if err != nil {
		return nil, nil, err
	}
	repo, err := execlog.OpenAt(path)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, repo, nil
}
