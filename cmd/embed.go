package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/vault"
	"github.com/PolarWolf314/backpack/internal/workflows"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// embedSource is the --from flag. Only sources that never put a value on the
// command line are accepted.
type embedSource workflows.EmbedSource

var _ pflag.Value = (*embedSource)(nil)

func (s *embedSource) String() string { return string(*s) }

func (s *embedSource) Set(value string) error {
	switch workflows.EmbedSource(value) {
	case workflows.EmbedFromVault, workflows.EmbedFromEnv:
		*s = embedSource(value)
		return nil
	}
	return fmt.Errorf("must be vault or env")
}

func (s *embedSource) Type() string { return "source" }

var (
	embedFrom   = embedSource(workflows.EmbedFromVault)
	embedRemove bool
)

func init() {
	embedCmd.Flags().Var(&embedFrom, "from", "where to read the value: vault or env")
	embedCmd.Flags().BoolVar(&embedRemove, "remove", false, "remove the embedded value and restore the placeholder")
}

func resetEmbedCommandState() {
	embedFrom = embedSource(workflows.EmbedFromVault)
	embedRemove = false
}

var embedCmd = &cobra.Command{
	Use:   "embed <NAME>",
	Short: "Embed a credential value in the container",
	Long: `Copies a credential value into the encrypted container so the agent can
run on machines that do not have it in their keyring.

Anyone with the container and its master key can read embedded values.

Examples:
  backpack embed OPENAI_API_KEY
  backpack embed GITHUB_TOKEN --from env
  backpack embed GITHUB_TOKEN --remove`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting embed command")

		from := workflows.EmbedSource(embedFrom)

		path, err := locateContainer()
		if err != nil {
			return err
		}
		key, err := resolveMasterKey()
		if err != nil {
			return err
		}

		var v vault.Vault
		if !embedRemove && from == workflows.EmbedFromVault {
			if v, err = openVault(); err != nil {
				return err
			}
		}

		spinner, cleanup := startSpinner("Updating credentials layer...")
		defer cleanup()

		result, err := workflows.Embed(context.Background(), workflows.EmbedOptions{
			ContainerPath: path,
			MasterKey:     key,
			Name:          args[0],
			From:          from,
			Remove:        embedRemove,
			Vault:         v,
			Redactor:      redactor,
		})
		if err != nil {
			spinner.FinalMSG = ui.Fail() + " Failed to update " + ui.Credential.Sprint(args[0])
			return err
		}

		if result.Portable {
			spinner.FinalMSG = fmt.Sprintf("%s Embedded %s from %s\n%s Anyone with this file and its master key can read the value",
				ui.OK(), ui.Credential.Sprint(result.Name), result.Source, ui.Caution())
		} else {
			spinner.FinalMSG = fmt.Sprintf("%s %s is a placeholder again", ui.OK(), ui.Credential.Sprint(result.Name))
		}
		return nil
	},
}
