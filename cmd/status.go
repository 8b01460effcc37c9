package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/vault"
	"github.com/PolarWolf314/backpack/internal/workflows"

	"github.com/spf13/cobra"
)

var statusJSONOutput bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

func resetStatusCommandState() {
	statusJSONOutput = false
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the agent container holds",
	Long: `Shows the container's identity, declared credentials, personality and
memory size. Credential values are never shown.

For each placeholder credential the OS keyring is checked for a value.
If the keyring cannot be reached the column is left blank.

Use --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		path, err := locateContainer()
		if err != nil {
			return err
		}
		key, err := resolveMasterKey()
		if err != nil {
			return err
		}

		var v vault.Vault
		if opened, err := openVault(); err != nil {
			Logger.Warnf("Vault unavailable, skipping vault lookups: %v", err)
		} else {
			v = opened
		}

		result, err := workflows.Status(context.Background(), workflows.StatusOptions{
			ContainerPath: path,
			MasterKey:     key,
			Vault:         v,
		})
		if err != nil {
			return err
		}

		if statusJSONOutput {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		}
		printStatus(result)
		return nil
	},
}

func printStatus(result *workflows.StatusResult) {
	fmt.Printf("Container: %s\n", ui.Path.Sprint(result.Path))
	fmt.Printf("  ID:       %s\n", result.ID)
	fmt.Printf("  Format:   v%d\n", result.FormatVersion)
	fmt.Printf("  Size:     %d bytes\n", result.Size)
	fmt.Printf("  Modified: %s\n", result.Modified.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Key:      %s\n", result.KeySource)
	fmt.Println()

	fmt.Println("Credentials:")
	if len(result.Credentials) == 0 {
		fmt.Println("  " + ui.Muted.Sprint("none declared"))
	}
	for _, c := range result.Credentials {
		var state string
		switch {
		case c.Portable:
			state = ui.Warning.Sprint("embedded")
		case c.InVault == nil:
			state = ui.Muted.Sprint("vault not checked")
		case *c.InVault:
			state = ui.Success.Sprint("in vault")
		default:
			state = ui.Error.Sprint("missing")
		}
		fmt.Printf("  %-30s %s\n", c.Name, state)
	}
	fmt.Println()

	fmt.Println("Personality:")
	fmt.Printf("  System prompt: %s\n", ui.Highlight.Sprint(result.Personality.SystemPrompt))
	fmt.Printf("  Tone:          %s\n", result.Personality.Tone)
	fmt.Println()

	fmt.Printf("Memory: %d key(s)\n", result.MemoryKeys)
}
