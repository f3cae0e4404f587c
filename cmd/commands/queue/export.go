package queue

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func ExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the queue as a JSON snapshot",
		Long: `Export every action in the queue as a JSON snapshot for backup or for
feeding other tooling. Writes to stdout unless --out is given.

Examples:
  occ queue export
  occ queue export --out queue-backup.json`,
		RunE:         runExport,
		SilenceUsage: true,
	}

	cmd.Flags().String("out", "", "Write the snapshot to this file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot, err := store.Export()
	if err != nil {
		return err
	}

	if out == "" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot failed: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d action(s) to %s\n", len(snapshot.Actions), out)
	return nil
}
