package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/backpack/internal/container"
	"github.com/PolarWolf314/backpack/internal/memory"
	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/workflows"

	"github.com/spf13/cobra"
)

var memoryIncrBy int64

func init() {
	memoryIncrCmd.Flags().Int64Var(&memoryIncrBy, "by", 1, "amount to add")

	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memorySetCmd)
	memoryCmd.AddCommand(memoryIncrCmd)
	memoryCmd.AddCommand(memoryUnsetCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}

func resetMemoryCommandState() {
	memoryIncrBy = 1
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Read and update the agent's memory",
	Long: `Reads and updates the memory layer of the agent container.

Memory is a JSON object the agent keeps between runs. Updates re-encrypt
only the memory layer and replace agent.lock atomically.

Examples:
  backpack memory show
  backpack memory set last_task '"summarize"'
  backpack memory incr session_count`,
}

func memoryOptions() (workflows.MemoryOptions, error) {
	path, err := locateContainer()
	if err != nil {
		return workflows.MemoryOptions{}, err
	}
	key, err := resolveMasterKey()
	if err != nil {
		return workflows.MemoryOptions{}, err
	}
	return workflows.MemoryOptions{ContainerPath: path, MasterKey: key}, nil
}

func printMemory(snapshot container.MemorySnapshot) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshot)
}

func updateMemory(merge memory.MergeFunc) (container.MemorySnapshot, error) {
	opts, err := memoryOptions()
	if err != nil {
		return nil, err
	}
	return workflows.MemoryUpdate(context.Background(), opts, merge)
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the memory as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting memory show command")
		opts, err := memoryOptions()
		if err != nil {
			return err
		}
		snapshot, err := workflows.MemoryShow(context.Background(), opts)
		if err != nil {
			return err
		}
		return printMemory(snapshot)
	},
}

var memorySetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a memory key",
	Long: `Sets a memory key. The value is parsed as JSON when it is valid JSON
and stored as a string otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting memory set command")
		if _, err := updateMemory(memory.Set(args[0], memory.ParseValue(args[1]))); err != nil {
			return err
		}
		fmt.Printf("%s Set %s\n", ui.OK(), ui.Highlight.Sprint(args[0]))
		return nil
	},
}

var memoryIncrCmd = &cobra.Command{
	Use:   "incr <key>",
	Short: "Add to an integer memory key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting memory incr command")
		snapshot, err := updateMemory(memory.Increment(args[0], memoryIncrBy))
		if err != nil {
			return err
		}
		fmt.Printf("%s %s = %v\n", ui.OK(), ui.Highlight.Sprint(args[0]), snapshot[args[0]])
		return nil
	},
}

var memoryUnsetCmd = &cobra.Command{
	Use:   "unset <key>...",
	Short: "Remove memory keys",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting memory unset command")
		if _, err := updateMemory(memory.Unset(args...)); err != nil {
			return err
		}
		fmt.Printf("%s Removed %d key(s)\n", ui.OK(), len(args))
		return nil
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every memory key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting memory clear command")
		if _, err := updateMemory(memory.Clear()); err != nil {
			return err
		}
		fmt.Printf("%s Memory cleared\n", ui.OK())
		return nil
	},
}
