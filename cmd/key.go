package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/utils"
	"github.com/PolarWolf314/backpack/internal/workflows"

	"github.com/spf13/cobra"
)

var keyAddFromStdin bool

func init() {
	keyAddCmd.Flags().BoolVar(&keyAddFromStdin, "stdin", false, "read the value from standard input instead of prompting")

	keyCmd.AddCommand(keyAddCmd)
	keyCmd.AddCommand(keyListCmd)
	keyCmd.AddCommand(keyRemoveCmd)
}

func resetKeyCommandState() {
	keyAddFromStdin = false
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage credential values in the OS keyring",
	Long: `Stores, lists and removes credential values in the OS keyring.

Values stored here stay on this machine. The agent container only records
that a credential is needed.`,
}

var keyAddCmd = &cobra.Command{
	Use:   "add <NAME>",
	Short: "Store a credential value",
	Long: `Stores a credential value in the OS keyring, replacing any existing one.

The value is read from a hidden prompt, or from standard input with --stdin.

Examples:
  backpack key add OPENAI_API_KEY
  printf '%s' "$TOKEN" | backpack key add GITHUB_TOKEN --stdin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting key add command")
		name := args[0]
		if err := utils.ValidateCredentialName(name); err != nil {
			return err
		}

		var value []byte
		var err error
		if keyAddFromStdin {
			value, err = utils.ReadStdin()
		} else {
			value, err = utils.ReadSecret(fmt.Sprintf("Value for %s: ", name))
		}
		if err != nil {
			return err
		}
		redactor.Add(string(value))

		v, err := openVault()
		if err != nil {
			return err
		}
		if err := workflows.KeyAdd(context.Background(), workflows.KeyAddOptions{
			Vault: v,
			Name:  name,
			Value: string(value),
		}); err != nil {
			return err
		}
		for i := range value {
			value[i] = 0
		}

		fmt.Printf("%s Stored %s\n", ui.OK(), ui.Credential.Sprint(name))
		return nil
	},
}

var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credential names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting key list command")
		v, err := openVault()
		if err != nil {
			return err
		}
		names, err := workflows.KeyList(context.Background(), v)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println(ui.Hint() + " No credentials stored. Add one with " + ui.Code.Sprint("backpack key add <NAME>"))
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var keyRemoveCmd = &cobra.Command{
	Use:     "remove <NAME>",
	Aliases: []string{"rm"},
	Short:   "Delete a stored credential",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting key remove command")
		v, err := openVault()
		if err != nil {
			return err
		}
		if err := workflows.KeyRemove(context.Background(), v, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Removed %s\n", ui.OK(), ui.Credential.Sprint(args[0]))
		return nil
	},
}
