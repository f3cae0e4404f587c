package queue

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued actions",
		Long: `List actions in the queue, newest first.

Examples:
  occ queue list
  occ queue list --status pending
  occ queue list --status failed --limit 50
  occ queue list -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().String("status", "", "Filter by status: pending, executing, completed, failed")
	cmd.Flags().Int("limit", 25, "Number of actions to display")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = "table"
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	actions, err := store.List(status, limit)
	if err != nil {
		return err
	}

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(actions)
	}
	if output != "table" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	if len(actions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No actions found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTION\tTARGET\tPRI\tSTATUS\tATTEMPTS\tCREATED\tLAST ERROR")
	fmt.Fprintln(w, "--\t------\t------\t---\t------\t--------\t-------\t----------")
	for _, act := range actions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			act.ID,
			act.Result.Action,
			act.Result.Target,
			act.Priority,
			act.Status,
			act.Attempts,
			act.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncateError(act.LastError),
		)
	}
	w.Flush()
	return nil
}

// truncateError keeps table rows readable; full messages are available
// with -o json or occ logs list.
func truncateError(msg string) string {
	if msg == "" {
		return "-"
	}
	if len(msg) > 48 {
		return msg[:45] + "..."
	}
	return msg
}
