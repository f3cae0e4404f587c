package auth

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage platform API tokens",
		Long: `Manage platform API tokens.

Tokens are stored in the OS keychain and handed to platform executors at
dispatch time. The simulated executor (--dry-run) needs no tokens.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(LogoutCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}
