package queue

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func StatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		Long: `Show live queue counts and latency aggregates.

Examples:
  occ queue stats
  occ queue stats -o json`,
		RunE:         runStats,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = "table"
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return err
	}

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	}
	if output != "table" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Pending:\t%d\n", stats.Pending)
	fmt.Fprintf(w, "  Executing:\t%d\n", stats.Executing)
	fmt.Fprintf(w, "  Completed:\t%d\n", stats.Completed)
	fmt.Fprintf(w, "  Failed:\t%d\n", stats.Failed)
	fmt.Fprintf(w, "  Total:\t%d\n", stats.Total)
	fmt.Fprintf(w, "  Avg wait:\t%s\n", formatMillis(int64(stats.AvgWaitMs)))
	if stats.OldestPendingMs > 0 {
		fmt.Fprintf(w, "  Oldest pending:\t%s\n", formatMillis(stats.OldestPendingMs))
	}
	w.Flush()
	return nil
}

func formatMillis(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
