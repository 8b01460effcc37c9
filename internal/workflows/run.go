package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/backpack/internal/configs"
	"github.com/PolarWolf314/backpack/internal/container"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	logger "github.com/PolarWolf314/backpack/internal/logging"
	"github.com/PolarWolf314/backpack/internal/secrets"
	"github.com/PolarWolf314/backpack/internal/utils"
	"github.com/PolarWolf314/backpack/internal/vault"
)

// Variables derived from the personality layer.
const (
	SystemPromptEnv = "AGENT_SYSTEM_PROMPT"
	ToneEnv         = "AGENT_TONE"
)

// RunState is a step of the injection state machine.
type RunState int

const (
	StateLoaded RunState = iota
	StateResolving
	StateConsenting
	StateAssembled
	StateExecuting
	StateFinalizing
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateResolving:
		return "resolving"
	case StateConsenting:
		return "consenting"
	case StateAssembled:
		return "assembled"
	case StateExecuting:
		return "executing"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CredentialSource records where an injected value came from.
type CredentialSource int

const (
	SourceParentEnv CredentialSource = iota
	SourceEmbedded
	SourceVault
)

func (s CredentialSource) String() string {
	switch s {
	case SourceParentEnv:
		return "environment"
	case SourceEmbedded:
		return "container"
	case SourceVault:
		return "vault"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CredentialSource.
func (s CredentialSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Consenter asks the operator whether a credential may be injected.
type Consenter interface {
	Consent(name string, source CredentialSource) (bool, error)
}

// Launcher runs the agent program and returns its exit status.
type Launcher interface {
	Launch(ctx context.Context, argv, env []string) (int, error)
}

// ExecLauncher launches the program as a real child process.
type ExecLauncher struct {
	Stdio utils.ProcessIO
}

// Launch implements Launcher.
func (l ExecLauncher) Launch(ctx context.Context, argv, env []string) (int, error) {
	return utils.RunProcess(ctx, argv, env, l.Stdio)
}

// RunOptions configures the run workflow.
type RunOptions struct {
	// ContainerPath is the resolved agent.lock path.
	ContainerPath string

	// Script is the agent program; Args follow it on the command line.
	Script string
	Args   []string

	// Interpreter overrides the extension based interpreter choice.
	Interpreter string

	MasterKey secrets.MasterKey
	Vault     vault.Vault
	Config    *configs.Config

	// NonInteractive forces non-interactive mode.
	NonInteractive bool

	// Consenter is required in interactive mode.
	Consenter Consenter

	// Launcher defaults to an ExecLauncher on the standard streams.
	Launcher Launcher

	// Environ is the parent environment. Defaults to os.Environ().
	Environ []string

	// Redactor receives every resolved value before it is used.
	Redactor *logger.Redactor

	// OnState is called on every state transition.
	OnState func(RunState)

	// BeforeExec is called once the environment is assembled, before the
	// program starts. Missing and declined names are final at this point.
	BeforeExec func(*RunResult)
}

// InjectedCredential is a credential placed into the child environment.
type InjectedCredential struct {
	Name   string           `json:"name"`
	Source CredentialSource `json:"source"`
}

// RunResult describes a run. It never holds credential values.
type RunResult struct {
	ContainerPath string `json:"container_path"`

	// NonInteractive is set when consent was skipped; NonInteractiveReason
	// names the trigger.
	NonInteractive       bool   `json:"non_interactive"`
	NonInteractiveReason string `json:"non_interactive_reason,omitempty"`

	Injected []InjectedCredential `json:"injected"`
	Missing  []string             `json:"missing"`
	Declined []string             `json:"declined"`

	// Derived lists the personality variables added to the environment.
	Derived []string `json:"derived"`

	Argv     []string `json:"argv"`
	ExitCode int      `json:"exit_code"`
	State    RunState `json:"-"`
}

// Plan is an assembled run waiting to be executed.
type Plan struct {
	Result *RunResult
	Env    []string
}

// Run resolves credentials, obtains consent, and runs the agent program
// with the assembled environment.
//
// Fatal errors (ErrFormat, ErrDecryptionFailed, ErrVaultUnavailable,
// ErrChildProcess) are returned before or instead of starting the program,
// with the partial result. A non-zero exit from a program that started is
// not an error; it is reported in RunResult.ExitCode.
func Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	plan, err := Prepare(ctx, opts)
	if err != nil {
		return resultOf(plan), err
	}

	if opts.BeforeExec != nil {
		opts.BeforeExec(plan.Result)
	}

	return Execute(ctx, plan, opts)
}

// Prepare runs the state machine up to Assembled.
func Prepare(ctx context.Context, opts RunOptions) (*Plan, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = configs.Default()
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	parent := envMap(environ)

	plan := &Plan{Result: &RunResult{
		ContainerPath: opts.ContainerPath,
		Injected:      []InjectedCredential{},
		Missing:       []string{},
		Declined:      []string{},
		Derived:       []string{},
	}}
	transition := func(s RunState) {
		plan.Result.State = s
		if opts.OnState != nil {
			opts.OnState(s)
		}
	}
	fail := func(err error) (*Plan, error) {
		transition(StateFailed)
		return plan, err
	}

	script, err := checkScript(opts.Script)
	if err != nil {
		return fail(err)
	}
	plan.Result.Argv = utils.ResolveCommand(script, opts.Args, opts.Interpreter, cfg.Run.Interpreters)

	// Loaded
	c, err := container.ReadFile(opts.ContainerPath)
	if err != nil {
		return fail(fmt.Errorf("loading container: %w", err))
	}
	u, err := container.Unlock(c, opts.MasterKey)
	if err != nil {
		return fail(fmt.Errorf("unlocking container: %w", err))
	}
	defer u.Close()

	reqs, err := u.Credentials()
	if err != nil {
		return fail(fmt.Errorf("decrypting credentials layer: %w", err))
	}
	personality, err := u.Personality()
	if err != nil {
		return fail(fmt.Errorf("decrypting personality layer: %w", err))
	}
	transition(StateLoaded)

	nonInteractive, reason := detectNonInteractive(opts, cfg, parent)
	plan.Result.NonInteractive = nonInteractive
	plan.Result.NonInteractiveReason = reason
	if !nonInteractive && opts.Consenter == nil {
		return fail(errors.New("interactive run requires a consent prompt"))
	}

	// Resolving and Consenting, in container order.
	transition(StateResolving)
	resolved := make(map[string]string, len(reqs))
	var order []string

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		// Presence is what counts; an empty parent value is still taken verbatim.
		if _, ok := parent[req.Name]; ok {
			plan.Result.Injected = append(plan.Result.Injected, InjectedCredential{Name: req.Name, Source: SourceParentEnv})
			continue
		}

		value, source, err := resolveValue(opts.Vault, req)
		if errors.Is(err, kerrors.ErrCredentialNotFound) {
			plan.Result.Missing = append(plan.Result.Missing, req.Name)
			continue
		}
		if err != nil {
			return fail(fmt.Errorf("resolving %s: %w", req.Name, err))
		}
		if opts.Redactor != nil {
			opts.Redactor.Add(value)
		}

		if !nonInteractive {
			transition(StateConsenting)
			approved, err := opts.Consenter.Consent(req.Name, source)
			transition(StateResolving)
			if err != nil || !approved {
				plan.Result.Declined = append(plan.Result.Declined, req.Name)
				continue
			}
		}

		resolved[req.Name] = value
		order = append(order, req.Name)
		plan.Result.Injected = append(plan.Result.Injected, InjectedCredential{Name: req.Name, Source: source})
	}

	// Assembled
	overlay := make([][2]string, 0, len(order)+3)
	for _, name := range order {
		overlay = append(overlay, [2]string{name, resolved[name]})
	}
	if personality.SystemPrompt != "" {
		overlay = append(overlay, [2]string{SystemPromptEnv, personality.SystemPrompt})
		plan.Result.Derived = append(plan.Result.Derived, SystemPromptEnv)
	}
	if personality.Tone != "" {
		overlay = append(overlay, [2]string{ToneEnv, personality.Tone})
		plan.Result.Derived = append(plan.Result.Derived, ToneEnv)
	}
	if abs, err := filepath.Abs(opts.ContainerPath); err == nil {
		overlay = append(overlay, [2]string{configs.ContainerPathEnv, abs})
	}

	plan.Env = assembleEnv(environ, overlay)
	transition(StateAssembled)
	return plan, nil
}

// Execute runs an assembled plan.
func Execute(ctx context.Context, plan *Plan, opts RunOptions) (*RunResult, error) {
	launcher := opts.Launcher
	if launcher == nil {
		launcher = ExecLauncher{Stdio: utils.ProcessIO{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}}
	}

	setState := func(s RunState) {
		plan.Result.State = s
		if opts.OnState != nil {
			opts.OnState(s)
		}
	}

	setState(StateExecuting)
	code, err := launcher.Launch(ctx, plan.Result.Argv, plan.Env)
	if err != nil {
		setState(StateFailed)
		if !errors.Is(err, kerrors.ErrChildProcess) {
			err = fmt.Errorf("%w: %v", kerrors.ErrChildProcess, err)
		}
		return plan.Result, err
	}

	plan.Result.ExitCode = code
	setState(StateFinalizing)
	setState(StateDone)
	return plan.Result, nil
}

// resolveValue returns the embedded value if the container carries one,
// otherwise the vault entry.
func resolveValue(v vault.Vault, req container.CredentialRequirement) (string, CredentialSource, error) {
	if value, ok := req.Embedded(); ok {
		return value, SourceEmbedded, nil
	}
	if v == nil {
		return "", SourceVault, fmt.Errorf("%w: no vault configured", kerrors.ErrVaultUnavailable)
	}
	value, err := v.Retrieve(req.Name)
	if err != nil {
		return "", SourceVault, err
	}
	if value == "" {
		return "", SourceVault, fmt.Errorf("%w: %s", kerrors.ErrCredentialNotFound, req.Name)
	}
	return value, SourceVault, nil
}

func detectNonInteractive(opts RunOptions, cfg *configs.Config, parent map[string]string) (bool, string) {
	if opts.NonInteractive {
		return true, "--non-interactive"
	}
	if name := cfg.MasterKey.Env; name != "" {
		if _, ok := parent[name]; ok {
			return true, name
		}
	}
	for _, name := range cfg.Run.NonInteractiveEnv {
		if _, ok := parent[name]; ok {
			return true, name
		}
	}
	return false, ""
}

// checkScript verifies the program exists before anything is decrypted.
func checkScript(script string) (string, error) {
	if script == "" {
		return "", fmt.Errorf("%w: no program given", kerrors.ErrChildProcess)
	}
	if _, err := os.Stat(script); err == nil {
		return script, nil
	}
	if !strings.ContainsRune(script, filepath.Separator) && !strings.ContainsRune(script, '/') {
		if _, err := exec.LookPath(script); err == nil {
			return script, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found", kerrors.ErrChildProcess, script)
}

func envMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		m[key] = value
	}
	return m
}

// assembleEnv returns environ with every overlay key replaced, preserving the
// parent order and appending overlay entries in order.
func assembleEnv(environ []string, overlay [][2]string) []string {
	replaced := make(map[string]bool, len(overlay))
	for _, kv := range overlay {
		replaced[kv[0]] = true
	}

	env := make([]string, 0, len(environ)+len(overlay))
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if replaced[key] {
			continue
		}
		env = append(env, kv)
	}
	for _, kv := range overlay {
		env = append(env, kv[0]+"="+kv[1])
	}
	return env
}

func resultOf(plan *Plan) *RunResult {
	if plan == nil {
		return nil
	}
	return plan.Result
}
