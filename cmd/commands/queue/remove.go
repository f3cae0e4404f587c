package queue

import (
	"errors"
	"fmt"
	"os"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

func RemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a pending action from the queue",
		Long: `Remove a pending action from the queue.

Only pending actions can be removed; an action that is executing or has
already finished stays in the queue for the audit trail.

Examples:
  occ queue remove 1f0c2a7e-...
  occ queue remove 1f0c2a7e-... --yes`,
		Args:         cobra.ExactArgs(1),
		RunE:         runRemove,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

func runRemove(cmd *cobra.Command, args []string) error {
	id := args[0]
	yes, _ := cmd.Flags().GetBool("yes")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	act, err := store.Get(id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no action with id %s", id)
	}
	if err != nil {
		return err
	}
	if act.Status != queue.StatusPending {
		return fmt.Errorf("action %s is %s; only pending actions can be removed", id, act.Status)
	}

	accessible := os.Getenv("ACCESSIBLE") != ""

	if !yes {
		confirm := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove %s/%s (%s)?", act.Result.Action, act.Result.Target, id)).
				Value(&confirm),
		)).WithAccessible(accessible)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Removal cancelled.")
				return nil
			}
			return err
		}
		if !confirm {
			fmt.Fprintln(cmd.ErrOrStderr(), "Removal cancelled.")
			return nil
		}
	}

	var removeErr error
	spinErr := spinner.New().
		Title("Removing action...").
		Accessible(accessible).
		Output(cmd.ErrOrStderr()).
		Action(func() {
			removeErr = store.Remove(id)
		}).
		Run()
	if spinErr != nil {
		return spinErr
	}
	if removeErr != nil {
		return removeErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the queue.\n", id)
	return nil
}
