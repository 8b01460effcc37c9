package logger

import (
	"sort"
	"strings"
	"sync"
)

// RedactedMarker replaces every registered secret value in redacted output.
const RedactedMarker = "***REDACTED***"

// Redactor holds secret values that must never appear in output.
type Redactor struct {
	mu     sync.RWMutex
	values map[string]struct{}
}

// NewRedactor returns an empty Redactor.
func NewRedactor() *Redactor {
	return &Redactor{values: make(map[string]struct{})}
}

// Add registers a value for redaction. Empty values are ignored.
func (r *Redactor) Add(value string) {
	if value == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[value] = struct{}{}
}

// Redact replaces registered values in s. Longer values are replaced first so
// a value that contains another is not partially exposed.
func (r *Redactor) Redact(s string) string {
	r.mu.RLock()
	values := make([]string, 0, len(r.values))
	for v := range r.values {
		values = append(values, v)
	}
	r.mu.RUnlock()

	sort.Slice(values, func(i, j int) bool { return len(values[i]) > len(values[j]) })
	for _, v := range values {
		s = strings.ReplaceAll(s, v, RedactedMarker)
	}
	return s
}
