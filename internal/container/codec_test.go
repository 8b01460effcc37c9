package container

import (
	"encoding/json"
	"errors"
	"testing"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
)

// mutated encodes a valid container, lets mutate edit its generic form and
// returns the re-encoded bytes.
func mutated(t *testing.T, mutate func(doc map[string]any)) []byte {
	t.Helper()
	u := sealTest(t, testKey(t, "k"))
	data, err := Encode(u.Container())
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	mutate(doc)
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func layer(doc map[string]any, name string) map[string]any {
	return doc["layers"].(map[string]any)[name].(map[string]any)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	for _, v := range []any{0, 2, 99, -1} {
		data := mutated(t, func(doc map[string]any) { doc["format_version"] = v })
		_, err := Decode(data)
		if !errors.Is(err, kerrors.ErrUnsupportedVersion) {
			t.Errorf("version %v: got %v, want ErrUnsupportedVersion", v, err)
		}
		if !errors.Is(err, kerrors.ErrFormat) {
			t.Errorf("version %v: ErrUnsupportedVersion should be a format error", v)
		}
	}
}

func TestDecodeVersionCheckedFirst(t *testing.T) {
	// A future version may change the whole shape; it must still be
	// reported as a version problem.
	_, err := Decode([]byte(`{"format_version": 2, "payload": "opaque"}`))
	if !errors.Is(err, kerrors.ErrUnsupportedVersion) {
		t.Errorf("got %v, want ErrUnsupportedVersion", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("not json")},
		{"empty", []byte("")},
		{"array", []byte("[]")},
		{"missing version", mutated(t, func(doc map[string]any) { delete(doc, "format_version") })},
		{"string version", mutated(t, func(doc map[string]any) { doc["format_version"] = "1" })},
		{"missing id", mutated(t, func(doc map[string]any) { delete(doc, "id") })},
		{"bad id", mutated(t, func(doc map[string]any) { doc["id"] = "not-a-uuid" })},
		{"short salt", mutated(t, func(doc map[string]any) { doc["salt"] = "AAAA" })},
		{"salt not base64", mutated(t, func(doc map[string]any) { doc["salt"] = "!!!" })},
		{"wrong kdf", mutated(t, func(doc map[string]any) { doc["kdf"] = map[string]any{"name": "scrypt", "iterations": 1} })},
		{"weak iterations", mutated(t, func(doc map[string]any) { doc["kdf"].(map[string]any)["iterations"] = 1000 })},
		{"missing layer", mutated(t, func(doc map[string]any) { delete(doc["layers"].(map[string]any), "memory") })},
		{"extra layer", mutated(t, func(doc map[string]any) {
			layers := doc["layers"].(map[string]any)
			layers["extra"] = layers["memory"]
		})},
		{"renamed layer", mutated(t, func(doc map[string]any) {
			layers := doc["layers"].(map[string]any)
			layers["mem"] = layers["memory"]
			delete(layers, "memory")
		})},
		{"short nonce", mutated(t, func(doc map[string]any) { layer(doc, "credentials")["nonce"] = "AAAA" })},
		{"missing tag", mutated(t, func(doc map[string]any) { delete(layer(doc, "personality"), "tag") })},
		{"unknown field", mutated(t, func(doc map[string]any) { doc["compression"] = "gzip" })},
		{"trailing data", append(mutated(t, func(map[string]any) {}), []byte(`{}`)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, kerrors.ErrFormat) {
				t.Errorf("got %v, want ErrFormat", err)
			}
			if errors.Is(err, kerrors.ErrDecryptionFailed) {
				t.Error("format problem reported as decryption failure")
			}
		})
	}
}

func TestEncodeRejectsInvalidContainer(t *testing.T) {
	u := sealTest(t, testKey(t, "k"))
	c := u.Container().Clone()
	delete(c.Layers, LayerMemory)

	if _, err := Encode(c); !errors.Is(err, kerrors.ErrFormat) {
		t.Errorf("got %v, want ErrFormat", err)
	}
	if _, err := Encode(nil); !errors.Is(err, kerrors.ErrFormat) {
		t.Errorf("nil container: got %v, want ErrFormat", err)
	}
}
