package memory

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/PolarWolf314/backpack/internal/container"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
)

func TestIncrement(t *testing.T) {
	tests := []struct {
		name  string
		start container.MemorySnapshot
		delta int64
		want  json.Number
	}{
		{"missing key", container.MemorySnapshot{}, 1, "1"},
		{"json number", container.MemorySnapshot{"n": json.Number("41")}, 1, "42"},
		{"int", container.MemorySnapshot{"n": 5}, -2, "3"},
		{"whole float", container.MemorySnapshot{"n": 2.0}, 3, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Increment("n", tt.delta)(tt.start)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got["n"] != tt.want {
				t.Errorf("n = %v, want %v", got["n"], tt.want)
			}
		})
	}
}

func TestIncrementRejects(t *testing.T) {
	tests := []struct {
		name  string
		value any
		delta int64
	}{
		{"string", "three", 1},
		{"fraction", 1.5, 1},
		{"decimal number", json.Number("1.5"), 1},
		{"overflow", json.Number("9223372036854775807"), 1},
		{"underflow", int64(math.MinInt64), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Increment("n", tt.delta)(container.MemorySnapshot{"n": tt.value})
			if !errors.Is(err, kerrors.ErrInvalidMemoryValue) {
				t.Errorf("got %v, want ErrInvalidMemoryValue", err)
			}
		})
	}
}

func TestChain(t *testing.T) {
	fn := Chain(Set("a", "x"), Increment("count", 2), Unset("old"))
	got, err := fn(container.MemorySnapshot{"old": true})
	if err != nil {
		t.Fatal(err)
	}
	want := container.MemorySnapshot{"a": "x", "count": json.Number("2")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestIntFloatBounds(t *testing.T) {
	if _, ok := Int(float64(1 << 63)); ok {
		t.Error("2^63 does not fit in int64")
	}
	if got, ok := Int(float64(-1 << 63)); !ok || got != math.MinInt64 {
		t.Errorf("Int(-2^63) = %d, %v", got, ok)
	}
	if got, ok := Int(float64(1 << 62)); !ok || got != 1<<62 {
		t.Errorf("Int(2^62) = %d, %v", got, ok)
	}
	if _, ok := Int(1.5); ok {
		t.Error("fractional value accepted")
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	if _, err := Set("", 1)(container.MemorySnapshot{}); !errors.Is(err, kerrors.ErrInvalidMemoryValue) {
		t.Errorf("got %v", err)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"42", json.Number("42")},
		{"true", true},
		{"null", nil},
		{`"quoted"`, "quoted"},
		{`{"k":[1,2]}`, map[string]any{"k": []any{json.Number("1"), json.Number("2")}}},
		{"hello world", "hello world"},
		{"12 monkeys", "12 monkeys"},
		{"", ""},
	}

	for _, tt := range tests {
		got := ParseValue(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseValue(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}
