package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func SummaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the execution summary for one day",
		Long: `Show aggregate execution figures for one UTC day, recomputed from the
raw log entries.

Examples:
  occ logs summary
  occ logs summary --date 2026-08-25
  occ logs summary -o json`,
		RunE:         runSummary,
		SilenceUsage: true,
	}

	cmd.Flags().String("date", "", "UTC day as YYYY-MM-DD (default today)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = "table"
	}

	repo, err := openRepo(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	summary, err := repo.DailySummary(date)
	if err != nil {
		return err
	}

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}
	if output != "table" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	if summary.Total == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No executions on %s.\n", summary.Date)
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Executions on %s\n\n", summary.Date)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Total:\t%d\n", summary.Total)
	fmt.Fprintf(w, "  Success rate:\t%.1f%%\n", summary.SuccessRate*100)
	fmt.Fprintf(w, "  Avg duration:\t%s\n", formatDuration(int64(summary.AvgDurationMs)))
	if summary.Slowest != nil {
		fmt.Fprintf(w, "  Slowest:\t%s/%s (%s)\n",
			summary.Slowest.Action, summary.Slowest.Target, formatDuration(summary.Slowest.DurationMs))
	}
	if summary.Fastest != nil {
		fmt.Fprintf(w, "  Fastest:\t%s/%s (%s)\n",
			summary.Fastest.Action, summary.Fastest.Target, formatDuration(summary.Fastest.DurationMs))
	}
	w.Flush()

	printBreakdown(cmd, "By status", summary.ByStatus)
	printBreakdown(cmd, "By target", summary.ByTarget)
	printBreakdown(cmd, "By action", summary.ByAction)
	return nil
}

func printBreakdown(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", title)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, key := range keys {
		fmt.Fprintf(w, "  %s:\t%d\n", key, counts[key])
	}
	w.Flush()
}
