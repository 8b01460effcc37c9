package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/backpack/internal/secrets"
	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	rotateNewKey    bool
	rotateNewKeyEnv string
)

func init() {
	rotateCmd.Flags().BoolVar(&rotateNewKey, "new-key", false, "re-encrypt under a new master key")
	rotateCmd.Flags().StringVar(&rotateNewKeyEnv, "new-key-env", "", "read the new master key from this environment variable")
}

func resetRotateCommandState() {
	rotateNewKey = false
	rotateNewKeyEnv = ""
}

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Re-encrypt the container with a fresh salt",
	Long: `Re-encrypts every layer of agent.lock with a fresh salt and fresh nonces.

With --new-key the container is re-encrypted under a new master key, read
from a prompt or from the variable named by --new-key-env.

Examples:
  backpack rotate
  backpack rotate --new-key
  NEW_KEY=... backpack rotate --new-key-env NEW_KEY`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rotate command")

		path, err := locateContainer()
		if err != nil {
			return err
		}
		key, err := resolveMasterKey()
		if err != nil {
			return err
		}

		newKey := key
		if rotateNewKey || rotateNewKeyEnv != "" {
			if newKey, err = promptNewMasterKey(rotateNewKeyEnv); err != nil {
				return err
			}
			if newKey.Source == secrets.SourceInsecureDefault {
				Logger.Warnf("The new master key is the insecure default")
			}
		}

		spinner, cleanup := startSpinner("Re-encrypting agent container...")
		defer cleanup()

		result, err := workflows.Rotate(context.Background(), workflows.RotateOptions{
			ContainerPath: path,
			MasterKey:     key,
			NewMasterKey:  newKey,
		})
		if err != nil {
			spinner.FinalMSG = ui.Fail() + " Failed to rotate " + ui.Path.Sprint(path)
			return err
		}

		msg := fmt.Sprintf("%s Rotated %s", ui.OK(), ui.Path.Sprint(path))
		if result.KeyChanged {
			msg += "\n" + ui.Hint() + " Update " + ui.Code.Sprint(loadedConfig().MasterKey.Env) + " wherever the agent runs"
		}
		spinner.FinalMSG = msg
		return nil
	},
}
