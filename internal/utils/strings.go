package utils

import (
	"fmt"
	"regexp"
	"strings"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/ui"
)

// credentialNamePattern matches environment-variable style names.
var credentialNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateCredentialName checks that name can be used as both a vault key and
// an environment variable. Names starting with "_" are reserved.
func ValidateCredentialName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name cannot be empty", kerrors.ErrInvalidCredentialName)
	case strings.HasPrefix(name, "_"):
		return fmt.Errorf("%w: %q starts with '_', which is reserved", kerrors.ErrInvalidCredentialName, name)
	case !credentialNamePattern.MatchString(name):
		return fmt.Errorf("%w: %q may only contain letters, digits and underscores", kerrors.ErrInvalidCredentialName, name)
	}
	return nil
}

// ParseCredentialList splits a comma-separated list, dropping blanks and
// preserving order. Invalid or repeated names are rejected.
func ParseCredentialList(list string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if err := ValidateCredentialName(name); err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrDuplicateCredential, name)
		}
		seen[name] = true
		names = append(names, name)
	}

	return names, nil
}

// FormatNames formats credential names as an indented list.
func FormatNames(names []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, name := range names {
		b.WriteString("    - ")
		b.WriteString(ui.Credential.Sprint(name))
		b.WriteString("\n")
	}
	return b.String()
}
