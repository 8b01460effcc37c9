package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type Logger struct {
	Verbose bool
	Debug   bool

	// Redactor scrubs registered secret values from every line. Nil disables redaction.
	Redactor *Redactor

	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		l.write(l.stdout(), color.GreenString("[info] "), msg, args...)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		l.write(l.stdout(), color.CyanString("[debug] "), msg, args...)
	}
}

// Warnf is shown regardless of verbosity.
func (l Logger) Warnf(msg string, args ...any) {
	l.write(l.stderr(), color.YellowString("[warn] "), msg, args...)
}

// WarnfUser prints a user-facing warning without the debug prefix.
func (l Logger) WarnfUser(msg string, args ...any) {
	l.write(l.stderr(), color.YellowString("Warning: "), msg, args...)
}

func (l Logger) Errorf(msg string, args ...any) {
	if l.Debug {
		l.write(l.stderr(), color.RedString("[error] "), msg, args...)
	}
}

// ErrorfAndReturn logs at error level and returns the same message as an error.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	l.Errorf(msg, args...)
	return fmt.Errorf(msg, args...)
}

func (l Logger) write(w io.Writer, prefix, msg string, args ...any) {
	line := fmt.Sprintf(msg, args...)
	if l.Redactor != nil {
		line = l.Redactor.Redact(line)
	}
	fmt.Fprintln(w, prefix+line)
}

func (l Logger) stdout() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) stderr() io.Writer {
	if l.Err != nil {
		return l.Err
	}
	return os.Stderr
}
