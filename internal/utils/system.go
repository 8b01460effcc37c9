package utils

import (
	"path/filepath"
	"strings"
)

// ResolveCommand returns the argv used to launch script. An explicit
// interpreter wins; otherwise the extension is looked up in interpreters;
// otherwise the script is executed directly.
func ResolveCommand(script string, args []string, interpreter string, interpreters map[string]string) []string {
	if interpreter == "" {
		interpreter = interpreters[strings.ToLower(filepath.Ext(script))]
	}

	argv := make([]string, 0, len(args)+2)
	if interpreter != "" {
		argv = append(argv, strings.Fields(interpreter)...)
	}
	argv = append(argv, script)
	return append(argv, args...)
}
