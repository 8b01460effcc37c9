package utils

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
		{"y", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := Confirm(bufio.NewReader(strings.NewReader(tt.input)), &out, "Inject?")
		if err != nil {
			t.Errorf("Confirm(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Inject? [y/N]") {
			t.Errorf("prompt not written: %q", out.String())
		}
	}
}

func TestConfirmSharedReader(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("y\nn\ny\n"))
	var out bytes.Buffer
	want := []bool{true, false, true}
	for i, w := range want {
		got, err := Confirm(r, &out, "q")
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("answer %d = %v, want %v", i, got, w)
		}
	}
}
