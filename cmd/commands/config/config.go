package config

import (
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage occ configuration",
		Long: "View and modify persistent occ settings.\n\n" +
			"Configuration is stored at ~/.config/occ/config.json.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
