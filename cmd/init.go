package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/backpack/internal/configs"
	"github.com/PolarWolf314/backpack/internal/container"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/utils"
	"github.com/PolarWolf314/backpack/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	initCredentials  string
	initSystemPrompt string
	initTone         string
	initForce        bool
)

func init() {
	initCmd.Flags().StringVarP(&initCredentials, "credentials", "c", "", "comma-separated credential names the agent needs")
	initCmd.Flags().StringVar(&initSystemPrompt, "system-prompt", "", "system prompt exported as AGENT_SYSTEM_PROMPT")
	initCmd.Flags().StringVar(&initTone, "tone", "", "tone exported as AGENT_TONE")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing agent.lock")
}

func resetInitCommandState() {
	initCredentials = ""
	initSystemPrompt = ""
	initTone = ""
	initForce = false
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an agent.lock in the current directory",
	Long: `Creates an encrypted agent container with a placeholder for every
credential the agent needs, a personality and an empty memory.

Credential values are not stored in the container. Add them to the OS
keyring with 'backpack key add', or embed them with 'backpack embed'.

Examples:
  backpack init --credentials OPENAI_API_KEY,GITHUB_TOKEN
  backpack init -c OPENAI_API_KEY --system-prompt "You are a code reviewer." --tone direct`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")

		names, err := utils.ParseCredentialList(initCredentials)
		if err != nil {
			return err
		}
		Logger.Debugf("Declared credentials: %v", names)

		path := containerFlag
		if path == "" {
			path = configs.ContainerFileName
		}
		path, err = filepath.Abs(path)
		if err != nil {
			return err
		}

		key, err := resolveMasterKey()
		if err != nil {
			return err
		}

		spinner, cleanup := startSpinner("Sealing agent container...")
		defer cleanup()

		result, err := workflows.Init(context.Background(), workflows.InitOptions{
			Path:        path,
			Credentials: names,
			Personality: container.Personality{SystemPrompt: initSystemPrompt, Tone: initTone},
			MasterKey:   key,
			Force:       initForce,
		})
		if err != nil {
			if errors.Is(err, kerrors.ErrContainerExists) {
				spinner.FinalMSG = ui.Fail() + " " + ui.Path.Sprint(path) + " already exists\n" +
					ui.Hint() + " Use " + ui.Flag.Sprint("--force") + " to overwrite it"
				return &ExitCodeError{Code: ExitFailure}
			}
			return err
		}

		msg := fmt.Sprintf("%s Created %s\n", ui.OK(), ui.Path.Sprint(result.Path))
		if len(result.Credentials) > 0 {
			msg += "  Credentials:" + utils.FormatNames(result.Credentials)
		}
		msg += fmt.Sprintf("  Personality: %s (%s)\n", ui.Highlight.Sprint(result.Personality.SystemPrompt), result.Personality.Tone)
		if len(result.Credentials) > 0 {
			msg += ui.Hint() + " Store values with " + ui.Code.Sprint("backpack key add <NAME>")
		}
		spinner.FinalMSG = msg
		return nil
	},
}
