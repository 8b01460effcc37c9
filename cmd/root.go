package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/PolarWolf314/backpack/internal/configs"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	logger "github.com/PolarWolf314/backpack/internal/logging"
	"github.com/PolarWolf314/backpack/internal/ui"

	"github.com/spf13/cobra"
)

// Exit statuses reserved for the tool itself.
const (
	ExitFailure = 1
	ExitFatal   = 125
)

var (
	verbose            bool
	debug              bool
	containerFlag      string
	configFlag         string
	insecureDefaultKey bool

	Logger     logger.Logger
	redactor   = logger.NewRedactor()
	userConfig *configs.Config

	RootCmd = &cobra.Command{
		Use:   "backpack",
		Short: "Backpack - encrypted, portable state for AI agents",
		Long: `Backpack keeps an agent's credentials, personality and memory in one
encrypted agent.lock file and injects real secret values into the agent's
environment only when it runs.

Usage:
  backpack init --credentials OPENAI_API_KEY,GITHUB_TOKEN
  backpack key add OPENAI_API_KEY
  backpack run agent.py

Run 'backpack help <command>' for more details on a specific command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose:  verbose,
				Debug:    debug,
				Redactor: redactor,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)

			path := configFlag
			if path == "" {
				path = os.Getenv(configs.ConfigPathEnv)
			}
			if path == "" {
				defaultPath, err := configs.DefaultPath()
				if err != nil {
					Logger.Warnf("Could not resolve config directory: %v", err)
				}
				path = defaultPath
			}

			cfg := configs.Default()
			if path != "" {
				loaded, err := configs.Load(path)
				if err != nil {
					return fmt.Errorf("loading config %s: %w", path, err)
				}
				cfg = loaded
			}
			userConfig = cfg
			configFlag = path
			Logger.Debugf("Using config %s (vault backend %q, master key env %s)", path, cfg.Vault.Backend, cfg.MasterKey.Env)
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVarP(&containerFlag, "file", "f", "", "path to agent.lock (default: search upwards from the current directory)")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config.toml")
	RootCmd.PersistentFlags().BoolVar(&insecureDefaultKey, "insecure-default-key", false, "fall back to the well-known default master key (unsafe)")

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(keyCmd)
	RootCmd.AddCommand(memoryCmd)
	RootCmd.AddCommand(embedCmd)
	RootCmd.AddCommand(rotateCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(versionCmd)
}

// ExitCodeError carries an exit status out of a command. Err, if set, is
// reported before exiting.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error { return e.Err }

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := RootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			printError(exitErr.Err)
		}
		return exitErr.Code
	}

	printError(err)
	return ExitFailure
}

// printError reports err on stderr with a remediation hint when one is known.
func printError(err error) {
	msg := redactor.Redact(err.Error())
	fmt.Fprintln(os.Stderr, ui.Fail()+" "+msg)
	if hint := remediationHint(err); hint != "" {
		fmt.Fprintln(os.Stderr, ui.Hint()+" "+hint)
	}
}

func remediationHint(err error) string {
	envName := configs.DefaultMasterKeyEnv
	if userConfig != nil && userConfig.MasterKey.Env != "" {
		envName = userConfig.MasterKey.Env
	}

	switch {
	case errors.Is(err, kerrors.ErrDecryptionFailed):
		return "Check that " + ui.Code.Sprint(envName) + " holds the key the container was created with"
	case errors.Is(err, kerrors.ErrMasterKeyMissing):
		return "Set " + ui.Code.Sprint(envName) + ", or run in a terminal to be prompted"
	case errors.Is(err, kerrors.ErrContainerNotFound):
		return "Run " + ui.Code.Sprint("backpack init") + " to create one, or pass " + ui.Flag.Sprint("--file")
	case errors.Is(err, kerrors.ErrContainerExists):
		return "Use " + ui.Flag.Sprint("--force") + " to overwrite it"
	case errors.Is(err, kerrors.ErrUnsupportedVersion):
		return "The container was written by a different version of backpack"
	case errors.Is(err, kerrors.ErrFormat):
		return "Restore agent.lock from version control or re-run " + ui.Code.Sprint("backpack init --force")
	case errors.Is(err, kerrors.ErrVaultUnavailable):
		return "Check that the OS keyring service is running, or run " + ui.Code.Sprint("backpack doctor")
	case errors.Is(err, kerrors.ErrChildProcess):
		return "Check the program path, or choose an interpreter with " + ui.Flag.Sprint("--interpreter")
	case errors.Is(err, kerrors.ErrInvalidCredentialName):
		return "Names may contain letters, digits and underscores and must not start with '_'"
	case errors.Is(err, kerrors.ErrUnknownCredential):
		return "Run " + ui.Code.Sprint("backpack status") + " to list declared credentials"
	case errors.Is(err, kerrors.ErrCredentialNotFound):
		return "Run " + ui.Code.Sprint("backpack key add <NAME>") + " to store it"
	}
	return ""
}

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	containerFlag = ""
	configFlag = ""
	insecureDefaultKey = false
	userConfig = nil
	vaultOpener = defaultVaultOpener
	consentOpener = consentInput
	resetInitCommandState()
	resetRunCommandState()
	resetKeyCommandState()
	resetMemoryCommandState()
	resetEmbedCommandState()
	resetRotateCommandState()
	resetStatusCommandState()
	resetDoctorCommandState()
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
