package logs

import (
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/config"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/execlog"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query the execution log",
		Long: `Query the append-only execution log.

Every dispatch writes a started entry and a terminal entry; fatal
rejections write a single terminal entry. Entries are never mutated or
deleted: they are the audit trail of record.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(SummaryCommand())

	cmd.PersistentFlags().String("db", "", "Database path (overrides config)")

	return cmd
}

// openRepo opens the execution log named by --db, the configured db-path,
// or the default location, in that order.
func openRepo(cmd *cobra.Command) (*execlog.SQLiteRepository, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.DatabasePath
	}
	if path != "" {
		return execlog.OpenAt(path)
	}
	return execlog.Open()
}
