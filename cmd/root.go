package cmd

import (
	"os"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/cmd/commands/auth"
	cfgcmd "github.com/yash7pute/AI-Operations-Command-Center-sub010/cmd/commands/config"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/cmd/commands/enqueue"
	logscmd "github.com/yash7pute/AI-Operations-Command-Center-sub010/cmd/commands/logs"
	queuecmd "github.com/yash7pute/AI-Operations-Command-Center-sub010/cmd/commands/queue"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/cmd/commands/run"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/cmd/commands/watch"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "occ",
		Short: "Durable action queue and execution pipeline for reasoning output",
		Long: `occ takes the action decisions produced by an upstream reasoning engine,
queues them durably, and executes them against platform APIs with priority
ordering, per-platform rate limiting, bounded retries, and a full audit log.

Quick start:
  occ enqueue --action send_notification --target slack \
      --param channel=#ops --param text="deploy done"
  occ run --dry-run                # Start the execution loop (simulated)
  occ queue list                   # Inspect queued and finished actions
  occ logs summary                 # Today's execution aggregates
  occ watch                        # Live execution feed`,
	}

	cmd.AddCommand(enqueue.NewCommand())
	cmd.AddCommand(run.NewCommand())
	cmd.AddCommand(queuecmd.NewCommand())
	cmd.AddCommand(logscmd.NewCommand())
	cmd.AddCommand(watch.NewCommand())
	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
