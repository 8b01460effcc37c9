package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/PolarWolf314/backpack/internal/container"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
)

// Set stores value under key.
func Set(key string, value any) MergeFunc {
	return func(prev container.MemorySnapshot) (container.MemorySnapshot, error) {
		if key == "" {
			return nil, fmt.Errorf("%w: key cannot be empty", kerrors.ErrInvalidMemoryValue)
		}
		prev[key] = value
		return prev, nil
	}
}

// Unset removes keys. Missing keys are ignored.
func Unset(keys ...string) MergeFunc {
	return func(prev container.MemorySnapshot) (container.MemorySnapshot, error) {
		for _, key := range keys {
			delete(prev, key)
		}
		return prev, nil
	}
}

// Clear drops every key.
func Clear() MergeFunc {
	return func(container.MemorySnapshot) (container.MemorySnapshot, error) {
		return container.MemorySnapshot{}, nil
	}
}

// Increment adds delta to the integer under key. A missing key starts at 0.
func Increment(key string, delta int64) MergeFunc {
	return func(prev container.MemorySnapshot) (container.MemorySnapshot, error) {
		current := int64(0)
		if raw, ok := prev[key]; ok {
			n, ok := Int(raw)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not an integer", kerrors.ErrInvalidMemoryValue, key)
			}
			current = n
		}

		if (delta > 0 && current > math.MaxInt64-delta) || (delta < 0 && current < math.MinInt64-delta) {
			return nil, fmt.Errorf("%w: %s would overflow", kerrors.ErrInvalidMemoryValue, key)
		}
		prev[key] = json.Number(strconv.FormatInt(current+delta, 10))
		return prev, nil
	}
}

// Chain applies fns in order.
func Chain(fns ...MergeFunc) MergeFunc {
	return func(prev container.MemorySnapshot) (container.MemorySnapshot, error) {
		var err error
		for _, fn := range fns {
			if prev, err = fn(prev); err != nil {
				return nil, err
			}
			if prev == nil {
				prev = container.MemorySnapshot{}
			}
		}
		return prev, nil
	}
}

// Int converts a decoded memory value to an integer.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || n >= 1<<63 || n < -1<<63 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// ParseValue interprets raw as JSON when it is valid JSON and as a plain
// string otherwise.
func ParseValue(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}
