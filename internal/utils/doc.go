// Package utils provides shared helpers for the Backpack application.
//
// # Filesystem Utilities
//
//   - FindContainer: walks up from a directory to locate agent.lock
//   - AtomicWriteFile: replaces a file via temp file and rename so readers
//     never observe a half-written container
//
// # String Utilities
//
//   - ValidateCredentialName: enforces the credential naming rules
//   - ParseCredentialList: splits and validates a comma-separated name list
//   - FormatNames: renders credential names for terminal output
//
// # System Utilities
//
//   - ResolveCommand: picks an interpreter for a script by extension
//   - RunProcess: runs a child with signal forwarding and exit code passthrough
//
// # Terminal Utilities
//
//   - IsTerminal, ReadSecret: hidden input for secret values
//   - OpenTTY, Confirm: consent prompts on the controlling terminal
//   - ReadStdin: reads piped secret values
package utils
