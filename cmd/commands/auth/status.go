package auth

import (
	"errors"
	"fmt"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/executors"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/services/auth"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which platforms have stored tokens",
		Long: `Show which platforms have stored API tokens.

Example:
  occ auth status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := auth.DefaultStore()

			for _, platform := range executors.Platforms() {
				_, err := store.GetToken(platform)
				switch {
				case err == nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: logged in\n", platform)
				case errors.Is(err, auth.ErrTokenNotFound):
					fmt.Fprintf(cmd.OutOrStdout(), "%s: not logged in\n", platform)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: error (%v)\n", platform, err)
				}
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
