package enqueue

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/config"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/util"

	"github.com/spf13/cobra"
)

// NewCommand returns the "enqueue" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue an action for execution",
		Long: `Queue an action decision for execution.

The decision can come from a JSON file (or stdin with --file -), from
flags, or both; flags override fields from the file. The action is
persisted before the command returns and executed by a running
"occ run" daemon.

Examples:
  occ enqueue --file decision.json
  reasoning-engine | occ enqueue --file -
  occ enqueue --action create_task --target trello \
      --param board=ops --param list=todo --param title="Fix login"
  occ enqueue --action send_notification --target slack \
      --param channel=#ops --param text="deploy done" --priority 1`,
		RunE:         runEnqueue,
		SilenceUsage: true,
	}

	cmd.Flags().String("file", "", "Read the decision as JSON from this file, or stdin with -")
	cmd.Flags().String("action", "", "Action name, e.g. create_task")
	cmd.Flags().String("target", "", "Target platform, e.g. trello")
	cmd.Flags().StringArray("param", nil, "Action parameter as key=value (repeatable)")
	cmd.Flags().Int("priority", 0, "Priority 1 (highest) to 5 (lowest); defaults to the configured default")
	cmd.Flags().String("correlation-id", "", "Correlation ID linking back to the reasoning run")
	cmd.Flags().String("db", "", "Queue database path (overrides config)")

	return cmd
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	res, err := decisionFromInput(cmd)
	if err != nil {
		return err
	}

	res.Action = util.NormalizeKey(res.Action)
	res.Target = util.NormalizeKey(res.Target)
	if res.Action == "" {
		return fmt.Errorf("action is required: pass --action or include it in --file")
	}
	if res.Target == "" {
		return fmt.Errorf("target is required: pass --target or include it in --file")
	}
	if err := util.ValidateIdent("action", res.Action); err != nil {
		return err
	}
	if err := util.ValidateIdent("target", res.Target); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	priority, _ := cmd.Flags().GetInt("priority")
	if priority == 0 {
		priority = cfg.DefaultPriority
	}
	if priority != 0 && (priority < queue.PriorityHighest || priority > queue.PriorityLowest) {
		return fmt.Errorf("priority must be between %d and %d, got %d",
			queue.PriorityHighest, queue.PriorityLowest, priority)
	}

	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.DatabasePath
	}
	store, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	act, err := store.Enqueue(res, priority)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %s (%s/%s, priority %d)\n",
		act.ID, act.Result.Action, act.Result.Target, act.Priority)
	return nil
}

// decisionFromInput assembles the reasoning decision from --file and flags.
// Flag values win over file fields; --param entries merge into the file's
// params.
func decisionFromInput(cmd *cobra.Command) (domain.ReasoningResult, error) {
	var res domain.ReasoningResult

	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		data, err := readInput(cmd, file)
		if err != nil {
			return res, err
		}
		if err := json.Unmarshal(data, &res); err != nil {
			return res, fmt.Errorf("invalid decision JSON: %w", err)
		}
	}

	if action, _ := cmd.Flags().GetString("action"); action != "" {
		res.Action = action
	}
	if target, _ := cmd.Flags().GetString("target"); target != "" {
		res.Target = target
	}
	if corr, _ := cmd.Flags().GetString("correlation-id"); corr != "" {
		res.CorrelationID = corr
	}

	params, _ := cmd.Flags().GetStringArray("param")
	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return res, fmt.Errorf("invalid --param %q: want key=value", p)
		}
		if res.Params == nil {
			res.Params = map[string]any{}
		}
		res.Params[key] = value
	}

	return res, nil
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin failed: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func openStore(path string) (*queue.SQLiteStore, error) {
	if path != "" {
		return queue.OpenAt(path)
	}
	return queue.Open()
}
