// Package ui provides semantic text formatting for Backpack CLI output.
//
// Formatters render with color when the terminal supports it. When NO_COLOR
// is set or the terminal cannot show colors, text decorations are used
// instead so the meaning survives in logs and CI output.
//
//	ui.Code.Sprint("backpack init")          // Commands
//	ui.Path.Sprint("agent.lock")             // File paths
//	ui.Credential.Sprint("OPENAI_API_KEY")    // Credential names, never values
//	ui.Success.Sprint("✓")                    // Success indicators
//	ui.Error.Sprint("✗")                      // Error indicators
//	ui.Info.Sprint("→")                       // Hints
//
// Colors are disabled when NO_COLOR is set (any value) or when fatih/color
// detects a dumb or non-TTY terminal.
package ui
