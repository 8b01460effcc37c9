package workflows

import (
	"context"

	"github.com/PolarWolf314/backpack/internal/container"
	"github.com/PolarWolf314/backpack/internal/secrets"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// Path is where agent.lock is created.
	Path string

	// Credentials are the required credential names, in prompt order.
	Credentials []string

	// Personality is stored as given. Empty fields take the defaults.
	Personality container.Personality

	MasterKey secrets.MasterKey

	// Force replaces an existing container.
	Force bool
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// Path is the container that was written.
	Path string

	// ID is the new container's identifier.
	ID string

	// Credentials are the declared names.
	Credentials []string

	// Personality is what was stored after defaults were applied.
	Personality container.Personality

	// InsecureKey is set when the container is sealed with the well-known
	// default master key.
	InsecureKey bool
}

// Init creates a new agent container with placeholders for every
// credential name and an empty memory layer.
//
// Returns ErrInvalidCredentialName or ErrDuplicateCredential for a bad name list.
// Returns ErrContainerExists if Path exists and Force is not set.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	reqs, err := container.NewRequirements(opts.Credentials)
	if err != nil {
		return nil, err
	}

	personality := opts.Personality
	if personality.SystemPrompt == "" {
		personality.SystemPrompt = container.DefaultSystemPrompt
	}
	if personality.Tone == "" {
		personality.Tone = container.DefaultTone
	}

	u, err := container.Seal(opts.MasterKey, container.Contents{
		Credentials: reqs,
		Personality: personality,
		Memory:      container.MemorySnapshot{},
	})
	if err != nil {
		return nil, err
	}
	defer u.Close()

	if err := container.Create(opts.Path, u.Container(), opts.Force); err != nil {
		return nil, err
	}

	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Name
	}

	return &InitResult{
		Path:        opts.Path,
		ID:          u.ID(),
		Credentials: names,
		Personality: personality,
		InsecureKey: opts.MasterKey.Insecure(),
	}, nil
}
