package container

import (
	"bytes"
	"encoding/json"
	"fmt"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/utils"
)

// PlaceholderPrefix marks a credential whose value lives outside the container.
const PlaceholderPrefix = "placeholder_"

// CredentialRequirement is one declared credential.
type CredentialRequirement struct {
	Name        string `json:"name"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
	Portable    bool   `json:"portable,omitempty"`
}

// NewRequirement declares name with a placeholder and no value.
func NewRequirement(name string) CredentialRequirement {
	return CredentialRequirement{Name: name, Placeholder: PlaceholderPrefix + name}
}

// Embedded returns the portable value, if any.
func (r CredentialRequirement) Embedded() (string, bool) {
	if !r.Portable || r.Value == "" {
		return "", false
	}
	return r.Value, true
}

// String omits any embedded value.
func (r CredentialRequirement) String() string {
	if r.Portable {
		return r.Name + " (portable)"
	}
	return r.Name
}

// GoString omits any embedded value.
func (r CredentialRequirement) GoString() string { return r.String() }

// Personality holds the fields exported to the agent as environment variables.
type Personality struct {
	SystemPrompt string `json:"system_prompt"`
	Tone         string `json:"tone"`
}

// Default personality values for new containers.
const (
	DefaultSystemPrompt = "You are a helpful AI assistant."
	DefaultTone         = "professional"
)

// DefaultPersonality returns the personality used when none is given.
func DefaultPersonality() Personality {
	return Personality{SystemPrompt: DefaultSystemPrompt, Tone: DefaultTone}
}

// MemorySnapshot is agent-defined session state. Numbers decode as
// json.Number so integers survive a round trip exactly.
type MemorySnapshot map[string]any

// Contents is the plaintext of all three layers.
type Contents struct {
	Credentials []CredentialRequirement
	Personality Personality
	Memory      MemorySnapshot
}

// NewRequirements builds placeholder requirements for names, in order.
func NewRequirements(names []string) ([]CredentialRequirement, error) {
	reqs := make([]CredentialRequirement, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, NewRequirement(name))
	}
	if err := ValidateRequirements(reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ValidateRequirements checks names and rejects duplicates.
func ValidateRequirements(reqs []CredentialRequirement) error {
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		if err := utils.ValidateCredentialName(r.Name); err != nil {
			return err
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: %s", kerrors.ErrDuplicateCredential, r.Name)
		}
		seen[r.Name] = true
		if r.Portable && r.Value == "" {
			return fmt.Errorf("%w: portable credential %s has no value", kerrors.ErrEmptyValue, r.Name)
		}
	}
	return nil
}

func encodeCredentials(reqs []CredentialRequirement) ([]byte, error) {
	if reqs == nil {
		reqs = []CredentialRequirement{}
	}
	if err := ValidateRequirements(reqs); err != nil {
		return nil, err
	}
	return json.Marshal(reqs)
}

func decodeCredentials(data []byte) ([]CredentialRequirement, error) {
	var reqs []CredentialRequirement
	if err := decodeStrict(data, &reqs); err != nil {
		return nil, fmt.Errorf("%w: credentials layer: %v", kerrors.ErrFormat, err)
	}
	if err := ValidateRequirements(reqs); err != nil {
		return nil, fmt.Errorf("%w: credentials layer: %v", kerrors.ErrFormat, err)
	}
	return reqs, nil
}

func decodePersonality(data []byte) (Personality, error) {
	var p Personality
	if err := decodeStrict(data, &p); err != nil {
		return Personality{}, fmt.Errorf("%w: personality layer: %v", kerrors.ErrFormat, err)
	}
	return p, nil
}

func encodeMemory(m MemorySnapshot) ([]byte, error) {
	if m == nil {
		m = MemorySnapshot{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding memory: %w", err)
	}
	return data, nil
}

func decodeMemory(data []byte) (MemorySnapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m MemorySnapshot
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: memory layer: %v", kerrors.ErrFormat, err)
	}
	if m == nil {
		m = MemorySnapshot{}
	}
	return m, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
