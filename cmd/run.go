package cmd

import (
	"context"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/vault"
	"github.com/PolarWolf314/backpack/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	runNonInteractive bool
	runInterpreter    string
)

func init() {
	runCmd.Flags().BoolVar(&runNonInteractive, "non-interactive", false, "inject every resolved credential without prompting")
	runCmd.Flags().StringVar(&runInterpreter, "interpreter", "", "program used to run the script (default: chosen by file extension)")
	runCmd.Flags().SetInterspersed(false)
}

func resetRunCommandState() {
	runNonInteractive = false
	runInterpreter = ""
}

var runCmd = &cobra.Command{
	Use:   "run <script> [args...]",
	Short: "Run an agent with its credentials injected",
	Long: `Decrypts agent.lock, resolves every declared credential and runs the
agent program with the credentials in its environment.

Each credential is taken from the first of:
  1. the current environment (used as is, no prompt)
  2. a value embedded in the container
  3. the OS keyring

Values from 2 and 3 are only injected after you approve them, unless the
run is non-interactive. A run is non-interactive when the master key
variable (AGENT_MASTER_KEY by default) is set, when --non-interactive is
given, or when a variable listed in run.non_interactive_env is set.

The agent also receives AGENT_SYSTEM_PROMPT, AGENT_TONE and
BACKPACK_CONTAINER. Backpack exits with the agent's exit status.

Examples:
  backpack run agent.py
  backpack run --interpreter python3.12 agent.py --task summarize
  AGENT_MASTER_KEY=... backpack run ./agent`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting run command")

		path, err := locateContainer()
		if err != nil {
			return fatal(err)
		}

		key, err := resolveMasterKey()
		if err != nil {
			return fatal(err)
		}

		// The vault is opened lazily so runs that never reach it work
		// without a keyring.
		lazy := &lazyVault{}

		in, closeIn := consentOpener()
		defer closeIn()

		ctx := context.Background()
		result, err := workflows.Run(ctx, workflows.RunOptions{
			ContainerPath:  path,
			Script:         args[0],
			Args:           args[1:],
			Interpreter:    runInterpreter,
			MasterKey:      key,
			Vault:          lazy,
			Config:         loadedConfig(),
			NonInteractive: runNonInteractive,
			Consenter:      workflows.NewPromptConsenter(in, os.Stderr),
			Redactor:       redactor,
			OnState: func(s workflows.RunState) {
				Logger.Debugf("Run state: %s", s)
			},
			BeforeExec: reportRunPlan,
		})
		if err != nil {
			return fatal(err)
		}

		Logger.Infof("Agent exited with status %d", result.ExitCode)
		if result.ExitCode != 0 {
			return &ExitCodeError{Code: result.ExitCode}
		}
		return nil
	},
}

func reportRunPlan(result *workflows.RunResult) {
	if result.NonInteractive {
		Logger.Infof("Non-interactive mode (%s)", result.NonInteractiveReason)
	}
	for _, c := range result.Injected {
		Logger.Infof("Injecting %s from %s", c.Name, c.Source)
	}
	for _, name := range result.Missing {
		Logger.WarnfUser("%s was not found in the environment, the container or the vault; the agent will run without it", name)
	}
	for _, name := range result.Declined {
		Logger.Warnf("%s was declined and will not be injected", name)
	}
	if len(result.Missing) > 0 {
		fmt.Fprintln(os.Stderr, ui.Hint()+" Store missing values with "+ui.Code.Sprint("backpack key add <NAME>"))
	}
	Logger.Debugf("Launching %v", result.Argv)
}

// fatal marks an orchestrator failure with the reserved exit status.
func fatal(err error) error {
	if !kerrors.IsFatal(err) {
		return &ExitCodeError{Code: ExitFailure, Err: err}
	}
	return &ExitCodeError{Code: ExitFatal, Err: err}
}

// lazyVault opens the configured vault on first use.
type lazyVault struct {
	v   vault.Vault
	err error
}

func (l *lazyVault) get() (vault.Vault, error) {
	if l.v == nil && l.err == nil {
		l.v, l.err = openVault()
	}
	return l.v, l.err
}

func (l *lazyVault) Store(name, value string) error {
	v, err := l.get()
	if err != nil {
		return err
	}
	return v.Store(name, value)
}

func (l *lazyVault) Retrieve(name string) (string, error) {
	v, err := l.get()
	if err != nil {
		return "", err
	}
	return v.Retrieve(name)
}

func (l *lazyVault) List() ([]string, error) {
	v, err := l.get()
	if err != nil {
		return nil, err
	}
	return v.List()
}

func (l *lazyVault) Delete(name string) error {
	v, err := l.get()
	if err != nil {
		return err
	}
	return v.Delete(name)
}

