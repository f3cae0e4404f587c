/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package queue

import (
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/config"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the action queue",
		Long:  `List, summarize, remove, prune, and export queued actions.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(StatsCommand())
	cmd.AddCommand(RemoveCommand())
	cmd.AddCommand(PruneCommand())
	cmd.AddCommand(ExportCommand())

	cmd.PersistentFlags().String("db", "", "Queue database path (overrides config)")

	return cmd
}

// openStore opens the queue database named by --db, the configured
// db-path, or the default location, in that order.
func openStore(cmd *cobra.Command) (*queue.SQLiteStore, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.DatabasePath
	}
	if path != "" {
		return queue.OpenAt(path)
	}
	return queue.Open()
}
