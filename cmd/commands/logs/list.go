package logs

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/execlog"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List execution log entries",
		Long: `List execution log entries, newest first.

Examples:
  occ logs list
  occ logs list --status failed --limit 50
  occ logs list --target slack --since 2026-08-01
  occ logs list --correlation-id run-42 -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().String("action-id", "", "Filter by action ID")
	cmd.Flags().String("correlation-id", "", "Filter by correlation ID")
	cmd.Flags().String("status", "", "Filter by status: started, success, failed")
	cmd.Flags().String("target", "", "Filter by target platform")
	cmd.Flags().String("action", "", "Filter by action name")
	cmd.Flags().String("since", "", "Entries at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().String("until", "", "Entries before this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().Int("offset", 0, "Number of entries to skip")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
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

	entries, err := repo.Query(filter)
	if err != nil {
		return err
	}

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}
	if output != "table" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No log entries found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tTARGET\tSTATUS\tATT\tDURATION\tACTION ID\tDETAIL")
	fmt.Fprintln(w, "----\t------\t------\t------\t---\t--------\t---------\t------")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			entry.Action,
			entry.Target,
			entry.Status,
			entry.AttemptNumber,
			formatDuration(entry.DurationMs),
			entry.ActionID,
			entryDetail(entry),
		)
	}
	w.Flush()
	return nil
}

func filterFromFlags(cmd *cobra.Command) (execlog.Filter, error) {
	var f execlog.Filter

	f.ActionID, _ = cmd.Flags().GetString("action-id")
	f.CorrelationID, _ = cmd.Flags().GetString("correlation-id")
	f.Status, _ = cmd.Flags().GetString("status")
	f.Target, _ = cmd.Flags().GetString("target")
	f.Action, _ = cmd.Flags().GetString("action")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	f.Offset, _ = cmd.Flags().GetInt("offset")
	if f.Limit <= 0 {
		return f, fmt.Errorf("limit must be greater than 0")
	}

	since, _ := cmd.Flags().GetString("since")
	if since != "" {
		t, err := parseTime(since)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	until, _ := cmd.Flags().GetString("until")
	if until != "" {
		t, err := parseTime(until)
		if err != nil {
			return f, err
		}
		f.To = t
	}

	return f, nil
}

func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339 or YYYY-MM-DD", value)
}

func entryDetail(entry execlog.Entry) string {
	detail := entry.Error
	if detail == "" && entry.Result != nil {
		if id, ok := entry.Result["id"].(string); ok {
			detail = id
		}
	}
	if detail == "" {
		return "-"
	}
	if len(detail) > 48 {
		return detail[:45] + "..."
	}
	return detail
}

func formatDuration(ms int64) string {
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
