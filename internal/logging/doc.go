// Package logger provides leveled output for Backpack CLI commands.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags. Output is formatted with semantic prefixes and colors.
//
// # Verbosity Levels
//
//   - --verbose: Shows info messages
//   - --debug: Shows all messages including debug details
//
// Warnings and errors are always written to stderr.
//
// # Redaction
//
// Every line passes through the logger's Redactor before it is written.
// The run orchestrator registers each resolved credential value, so a
// value that leaks into a format argument is replaced with a fixed marker
// instead of reaching the terminal:
//
//	log := Logger{Verbose: verbose, Redactor: NewRedactor()}
//	log.Redactor.Add(value)
//	log.Infof("injecting %s", name)
package logger
