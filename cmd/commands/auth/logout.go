package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/services/auth"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout <platform>",
		Short: "Remove the stored API token for a platform",
		Long: `Remove the stored API token for a platform from the local keychain.

Example:
  occ auth logout slack`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform := strings.TrimSpace(args[0])
			if platform == "" {
				return fmt.Errorf("platform is required")
			}

			store := auth.DefaultStore()
			if err := store.DeleteToken(platform); err != nil {
				if errors.Is(err, auth.ErrTokenNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "No token stored for platform %s\n", platform)
					return nil
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed token for platform %s\n", platform)
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
