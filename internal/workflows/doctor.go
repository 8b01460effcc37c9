package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/PolarWolf314/backpack/internal/configs"
	"github.com/PolarWolf314/backpack/internal/container"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/secrets"
	"github.com/PolarWolf314/backpack/internal/vault"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
	// CheckSkipped means an earlier failure made the check meaningless.
	CheckSkipped
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	case CheckSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped"`
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// ConfigPath is the user configuration file.
	ConfigPath string

	// ContainerPath is an explicit container location; empty means discover.
	ContainerPath string

	// MasterKey, when not zero, is used to test decryption.
	MasterKey secrets.MasterKey

	// MasterKeyEnv is the variable expected to hold the master key.
	MasterKeyEnv string

	// AllowInsecureDefault mirrors the configuration flag of the same name.
	AllowInsecureDefault bool

	// OpenVault opens the configured vault.
	OpenVault func() (vault.Vault, error)

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// doctorState carries what earlier checks found to later ones.
type doctorState struct {
	opts      DoctorOptions
	vault     vault.Vault
	path      string
	container *container.AgentContainer
	reqs      []container.CredentialRequirement
}

// Doctor runs health checks on the configuration, master key, vault and
// container.
//
// The doctor workflow checks:
//   - User configuration validity
//   - Master key availability
//   - Vault reachability
//   - Container location, format and permissions
//   - Container decryption with the current master key
//   - Vault entries for every declared credential
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.MasterKeyEnv == "" {
		opts.MasterKeyEnv = configs.DefaultMasterKeyEnv
	}

	st := &doctorState{opts: opts}
	checks := []func() CheckResult{
		st.checkConfig,
		st.checkMasterKey,
		st.checkVault,
		st.checkContainerFormat,
		st.checkContainerPermissions,
		st.checkDecryption,
		st.checkCredentials,
	}

	var results []CheckResult
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, check())
	}

	summary := calculateDoctorSummary(results)

	// Collect suggestions (deduplicated).
	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

func (st *doctorState) checkConfig() CheckResult {
	const name = "Configuration"
	if st.opts.ConfigPath == "" {
		return CheckResult{Name: name, Status: CheckPass, Message: "Using built-in defaults"}
	}
	if _, err := os.Stat(st.opts.ConfigPath); os.IsNotExist(err) {
		return CheckResult{Name: name, Status: CheckPass, Message: "No config file, using built-in defaults"}
	}
	if _, err := configs.Load(st.opts.ConfigPath); err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to parse %s: %v", st.opts.ConfigPath, err),
			Suggestion: "Fix the syntax or unknown keys in " + st.opts.ConfigPath,
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: "Configuration valid"}
}

func (st *doctorState) checkMasterKey() CheckResult {
	const name = "Master key"
	if value, ok := st.opts.LookupEnv(st.opts.MasterKeyEnv); ok && value != "" {
		msg := st.opts.MasterKeyEnv + " is set (runs are non-interactive)"
		if value == secrets.InsecureDefaultMasterKey {
			return CheckResult{
				Name:       name,
				Status:     CheckWarning,
				Message:    st.opts.MasterKeyEnv + " holds the well-known default key",
				Suggestion: "Choose a private master key and run 'backpack rotate --new-key'",
			}
		}
		return CheckResult{Name: name, Status: CheckPass, Message: msg}
	}
	if st.opts.AllowInsecureDefault {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "Insecure default master key is enabled",
			Suggestion: "Set " + st.opts.MasterKeyEnv + " and disable allow_insecure_default",
		}
	}
	return CheckResult{
		Name:       name,
		Status:     CheckWarning,
		Message:    st.opts.MasterKeyEnv + " is not set; you will be prompted for the key",
		Suggestion: "Export " + st.opts.MasterKeyEnv + " for unattended runs",
	}
}

func (st *doctorState) checkVault() CheckResult {
	const name = "Vault"
	if st.opts.OpenVault == nil {
		return CheckResult{Name: name, Status: CheckSkipped, Message: "No vault configured"}
	}

	v, err := st.opts.OpenVault()
	if err == nil {
		_, err = v.List()
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Vault unreachable: %v", err),
			Suggestion: "Check that the OS keyring service is running, or set [vault] backend in the config",
		}
	}

	st.vault = v
	return CheckResult{Name: name, Status: CheckPass, Message: "Vault reachable"}
}

func (st *doctorState) checkContainerFormat() CheckResult {
	const name = "Container format"
	path, err := container.Locate(st.opts.ContainerPath)
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    "No agent.lock found",
			Suggestion: "Run 'backpack init' to create a container",
		}
	}
	st.path = path

	c, err := container.ReadFile(path)
	if err != nil {
		result := CheckResult{Name: name, Status: CheckError, Message: err.Error()}
		switch {
		case errors.Is(err, kerrors.ErrContainerNotFound):
			result.Suggestion = "Run 'backpack init' to create a container"
		case errors.Is(err, kerrors.ErrUnsupportedVersion):
			result.Suggestion = "Upgrade backpack to read this container"
		default:
			result.Suggestion = "Restore agent.lock from version control or re-run 'backpack init --force'"
		}
		return result
	}

	st.container = c
	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("%s is a valid version %d container", path, c.FormatVersion)}
}

func (st *doctorState) checkContainerPermissions() CheckResult {
	const name = "Container permissions"
	if st.container == nil {
		return CheckResult{Name: name, Status: CheckSkipped, Message: "No readable container"}
	}
	if runtime.GOOS == "windows" {
		return CheckResult{Name: name, Status: CheckSkipped, Message: "Not checked on Windows"}
	}

	info, err := os.Stat(st.path)
	if err != nil {
		return CheckResult{Name: name, Status: CheckError, Message: err.Error()}
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Container is readable by other users (%04o)", perm),
			Suggestion: "Run 'chmod 600 " + st.path + "'",
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: "Container is private to the owner"}
}

func (st *doctorState) checkDecryption() CheckResult {
	const name = "Container decryption"
	if st.container == nil {
		return CheckResult{Name: name, Status: CheckSkipped, Message: "No readable container"}
	}
	if st.opts.MasterKey.IsZero() {
		return CheckResult{Name: name, Status: CheckSkipped, Message: "No master key available to test"}
	}

	u, err := container.Unlock(st.container, st.opts.MasterKey)
	if err == nil {
		defer u.Close()
		_, err = u.Contents()
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    "Master key does not open the container",
			Suggestion: "Check that " + st.opts.MasterKeyEnv + " matches the key used at 'backpack init'",
		}
	}

	st.reqs, _ = u.Credentials()
	return CheckResult{Name: name, Status: CheckPass, Message: "All layers decrypt and authenticate"}
}

func (st *doctorState) checkCredentials() CheckResult {
	const name = "Credentials"
	if st.reqs == nil || st.vault == nil {
		return CheckResult{Name: name, Status: CheckSkipped, Message: "Container or vault not available"}
	}

	var missing []string
	for _, req := range st.reqs {
		if _, ok := req.Embedded(); ok {
			continue
		}
		if value, ok := st.opts.LookupEnv(req.Name); ok && value != "" {
			continue
		}
		if _, err := st.vault.Retrieve(req.Name); err != nil {
			missing = append(missing, req.Name)
		}
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "Missing: " + strings.Join(missing, ", "),
			Suggestion: "Run 'backpack key add <NAME>' for each missing credential",
		}
	}
	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("All %d credentials resolvable", len(st.reqs)),
	}
}

func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, r := range results {
		switch r.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		case CheckSkipped:
			summary.Skipped++
		}
	}
	return summary
}
