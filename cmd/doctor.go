package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/backpack/internal/secrets"
	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/vault"
	"github.com/PolarWolf314/backpack/internal/workflows"

	"github.com/spf13/cobra"
)

var doctorJSONOutput bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
}

func resetDoctorCommandState() {
	doctorJSONOutput = false
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the backpack setup",
	Long: `Runs a series of health checks and reports issues.

The doctor command checks:
  - User configuration validity
  - Master key availability
  - OS keyring reachability
  - Container format and permissions
  - Container decryption with the current master key
  - Keyring entries for every declared credential

The master key is only read from the environment; doctor never prompts.

Exit codes:
  0 - All checks passed
  1 - Warnings found (non-critical issues)
  2 - Errors found (critical issues)

Use --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting doctor command")
	cfg := loadedConfig()

	key, err := secrets.ResolveMasterKey(secrets.ResolveOptions{
		EnvName:              cfg.MasterKey.Env,
		AllowInsecureDefault: cfg.MasterKey.AllowInsecureDefault || insecureDefaultKey,
	})
	if err != nil {
		Logger.Debugf("No master key for decryption check: %v", err)
	}

	spinner, cleanup := startSpinner("Running health checks...")

	result, err := workflows.Doctor(context.Background(), workflows.DoctorOptions{
		ConfigPath:           configFlag,
		ContainerPath:        containerFlag,
		MasterKey:            key,
		MasterKeyEnv:         cfg.MasterKey.Env,
		AllowInsecureDefault: cfg.MasterKey.AllowInsecureDefault || insecureDefaultKey,
		OpenVault:            func() (vault.Vault, error) { return openVault() },
	})
	if err != nil {
		spinner.FinalMSG = ui.Fail() + " Failed to run health checks: " + err.Error()
		cleanup()
		return err
	}
	cleanup()

	for _, check := range result.Checks {
		Logger.Debugf("Check %s: status=%s, message=%s", check.Name, check.Status.String(), check.Message)
	}

	if doctorJSONOutput {
		if err := outputDoctorJSON(result); err != nil {
			return err
		}
	} else {
		printDoctorResults(result)
		switch {
		case result.Summary.Errors > 0:
			fmt.Println(ui.Fail() + " Health checks completed with errors")
		case result.Summary.Warnings > 0:
			fmt.Println(ui.Caution() + " Health checks completed with warnings")
		default:
			fmt.Println(ui.OK() + " Health checks completed")
		}
	}

	if result.Summary.Errors > 0 {
		return &ExitCodeError{Code: 2}
	}
	if result.Summary.Warnings > 0 {
		return &ExitCodeError{Code: 1}
	}
	return nil
}

// outputDoctorJSON outputs the result as JSON.
func outputDoctorJSON(result *workflows.DoctorResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printDoctorResults prints the doctor results in a human-readable format.
func printDoctorResults(result *workflows.DoctorResult) {
	for _, check := range result.Checks {
		var statusIcon string
		switch check.Status {
		case workflows.CheckPass:
			statusIcon = ui.OK()
		case workflows.CheckWarning:
			statusIcon = ui.Caution()
		case workflows.CheckError:
			statusIcon = ui.Fail()
		case workflows.CheckSkipped:
			statusIcon = ui.Muted.Sprint("-")
		}
		fmt.Printf("%s %-24s %s\n", statusIcon, check.Name, check.Message)
	}

	fmt.Println()
	fmt.Printf("Summary: %d passed", result.Summary.Passed)
	if result.Summary.Warnings > 0 {
		fmt.Printf(", %s", ui.Warning.Sprint(fmt.Sprintf("%d warning(s)", result.Summary.Warnings)))
	}
	if result.Summary.Errors > 0 {
		fmt.Printf(", %s", ui.Error.Sprint(fmt.Sprintf("%d error(s)", result.Summary.Errors)))
	}
	if result.Summary.Skipped > 0 {
		fmt.Printf(", %d skipped", result.Summary.Skipped)
	}
	fmt.Println()

	if len(result.Suggestions) > 0 {
		fmt.Println()
		fmt.Println("Suggestions:")
		for _, suggestion := range result.Suggestions {
			fmt.Printf("  %s %s\n", ui.Hint(), suggestion)
		}
	}
}
