package watch

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/config"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/database"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/execlog"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/tui"

	"github.com/spf13/cobra"
)

// NewCommand returns the "watch" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the live execution feed",
		Long: `Watch the live execution feed: new log entries as they are written,
current queue counts, and a throughput sparkline.

The feed starts at "now" and follows the shared database, so it can run
next to an "occ run" daemon in another terminal. Only entries appended
after the watch starts are shown; use "occ logs list" for history.

Examples:
  occ watch
  occ watch --interval 250ms`,
		RunE:         runWatch,
		SilenceUsage: true,
	}

	cmd.Flags().Duration("interval", time.Second, "How often to poll for new log entries")
	cmd.Flags().String("db", "", "Database path (overrides config)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.DatabasePath
	}
	if dbPath == "" {
		dbPath, err = database.DefaultPath()
		if err != nil {
			return err
		}
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = time.Second
	}

	store, err := queue.OpenAt(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	repo, err := execlog.OpenAt(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	stats := func() *queue.Stats {
		s, err := store.Stats()
		if err != nil {
			return nil
		}
		return s
	}

	hub := execlog.NewHub()
	hub.SetStats(stats)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tail the log into the hub so the TUI sees the same feed shape as
	// when it runs inside the daemon.
	afterID, err := repo.LatestID()
	if err != nil {
		return err
	}
	go tailLoop(ctx, repo, hub, afterID, interval)

	return tui.RunWatchContext(ctx, hub, stats, dbPath)
}

// tailLoop polls for entries appended after afterID and publishes them.
// Read errors are skipped; a transient locked database just delays the
// next batch by one interval.
func tailLoop(ctx context.Context, repo *execlog.SQLiteRepository, hub *execlog.Hub, afterID int64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		entries, err := repo.Tail(afterID)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			afterID = entry.ID
			hub.Publish(entry)
		}
	}
}
