package secrets

import (
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
)

// InsecureDefaultMasterKey is the well-known fallback key. Anyone can decrypt
// a container sealed with it.
const InsecureDefaultMasterKey = "default-key"

// KeySource records where the master key came from.
type KeySource int

const (
	// SourceEnvironment means the configured environment variable supplied the key.
	SourceEnvironment KeySource = iota
	// SourcePrompt means the operator typed the key at a terminal.
	SourcePrompt
	// SourceInsecureDefault means the well-known fallback key is in use.
	SourceInsecureDefault
	// SourceExplicit means the key was passed in directly (rotation, tests).
	SourceExplicit
)

func (s KeySource) String() string {
	switch s {
	case SourceEnvironment:
		return "environment"
	case SourcePrompt:
		return "prompt"
	case SourceInsecureDefault:
		return "insecure-default"
	case SourceExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// MasterKey is the effective master-key secret for one operation.
type MasterKey struct {
	secret []byte
	Source KeySource
	// EnvName is the variable consulted during resolution.
	EnvName string
}

// NewMasterKey wraps a secret. An empty secret is rejected.
func NewMasterKey(secret string, source KeySource) (MasterKey, error) {
	if secret == "" {
		return MasterKey{}, kerrors.ErrMasterKeyMissing
	}
	return MasterKey{secret: []byte(secret), Source: source}, nil
}

// IsZero reports whether no secret is held.
func (m MasterKey) IsZero() bool { return len(m.secret) == 0 }

// Insecure reports whether the well-known fallback key is in use.
func (m MasterKey) Insecure() bool { return m.Source == SourceInsecureDefault }

// String never reveals the secret.
func (m MasterKey) String() string { return fmt.Sprintf("MasterKey(source=%s)", m.Source) }

// GoString never reveals the secret.
func (m MasterKey) GoString() string { return m.String() }

// ResolveOptions controls ResolveMasterKey.
type ResolveOptions struct {
	// EnvName is the environment variable carrying the key.
	EnvName string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// AllowInsecureDefault permits InsecureDefaultMasterKey when EnvName is unset.
	AllowInsecureDefault bool

	// Prompt, if set, asks the operator for the key when EnvName is unset.
	Prompt func() ([]byte, error)
}

// ResolveMasterKey picks the master key: environment variable, then the
// insecure default if explicitly allowed, then the prompt.
func ResolveMasterKey(opts ResolveOptions) (MasterKey, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if value, ok := lookup(opts.EnvName); ok && value != "" {
		key, err := NewMasterKey(value, SourceEnvironment)
		key.EnvName = opts.EnvName
		return key, err
	}

	if opts.AllowInsecureDefault {
		key, err := NewMasterKey(InsecureDefaultMasterKey, SourceInsecureDefault)
		key.EnvName = opts.EnvName
		return key, err
	}

	if opts.Prompt != nil {
		typed, err := opts.Prompt()
		if err != nil {
			return MasterKey{}, fmt.Errorf("%w: %v", kerrors.ErrMasterKeyMissing, err)
		}
		key, err := NewMasterKey(string(typed), SourcePrompt)
		for i := range typed {
			typed[i] = 0
		}
		key.EnvName = opts.EnvName
		return key, err
	}

	return MasterKey{}, fmt.Errorf("%w: set %s", kerrors.ErrMasterKeyMissing, opts.EnvName)
}
