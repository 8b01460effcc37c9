package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLoggerVerbosity(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name      string
		logger    func(out, err *bytes.Buffer) Logger
		wantInfo  bool
		wantDebug bool
	}{
		{"quiet", func(o, e *bytes.Buffer) Logger { return Logger{Out: o, Err: e} }, false, false},
		{"verbose", func(o, e *bytes.Buffer) Logger { return Logger{Verbose: true, Out: o, Err: e} }, true, false},
		{"debug", func(o, e *bytes.Buffer) Logger { return Logger{Debug: true, Out: o, Err: e} }, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := tt.logger(&out, &errOut)
			l.Infof("info %d", 1)
			l.Debugf("debug %d", 2)
			l.Warnf("always")

			if got := strings.Contains(out.String(), "[info] info 1"); got != tt.wantInfo {
				t.Errorf("info shown = %v, want %v (output %q)", got, tt.wantInfo, out.String())
			}
			if got := strings.Contains(out.String(), "[debug] debug 2"); got != tt.wantDebug {
				t.Errorf("debug shown = %v, want %v (output %q)", got, tt.wantDebug, out.String())
			}
			if !strings.Contains(errOut.String(), "[warn] always") {
				t.Errorf("Warnf missing from stderr: %q", errOut.String())
			}
		})
	}
}

func TestLoggerRedactsRegisteredValues(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	r := NewRedactor()
	r.Add("sk-live-123")
	l := Logger{Verbose: true, Redactor: r, Out: &out, Err: &errOut}

	l.Infof("resolved OPENAI_API_KEY=%s", "sk-live-123")
	l.Warnf("value was %s", "sk-live-123")

	combined := out.String() + errOut.String()
	if strings.Contains(combined, "sk-live-123") {
		t.Fatalf("secret leaked into log output: %q", combined)
	}
	if strings.Count(combined, RedactedMarker) != 2 {
		t.Errorf("expected two redaction markers, got %q", combined)
	}
}

func TestRedactorPrefersLongestValue(t *testing.T) {
	r := NewRedactor()
	r.Add("abc")
	r.Add("abcdef")
	r.Add("")

	got := r.Redact("token=abcdef")
	if got != "token="+RedactedMarker {
		t.Errorf("Redact() = %q, want %q", got, "token="+RedactedMarker)
	}
}

func TestErrorfAndReturn(t *testing.T) {
	var errOut bytes.Buffer
	l := Logger{Err: &errOut}
	err := l.ErrorfAndReturn("failed to load %s", "agent.lock")
	if err == nil || err.Error() != "failed to load agent.lock" {
		t.Fatalf("ErrorfAndReturn() = %v", err)
	}
	if errOut.Len() != 0 {
		t.Errorf("error should only print in debug mode, got %q", errOut.String())
	}
}
