package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

func TestFindContainerWalksUp(t *testing.T) {
	root := t.TempDir()
	container := filepath.Join(root, "agent.lock")
	if err := os.WriteFile(container, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindContainer(nested, "agent.lock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := filepath.EvalSymlinks(container)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("got %s, want %s", got, container)
	}
}

func TestFindContainerIgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "agent.lock"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindContainer(root, "agent.lock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" && filepath.Dir(got) == root {
		t.Errorf("directory should not be treated as a container: %s", got)
	}
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.lock")

	if err := AtomicWriteFile(path, []byte("first"), 0600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}

	if runtime.GOOS != "windows" {
		info, _ := os.Stat(path)
		if info.Mode().Perm() != 0600 {
			t.Errorf("permissions = %o, want 600", info.Mode().Perm())
		}
	}
}

func TestAtomicWriteFileConcurrentReaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.lock")
	a := make([]byte, 64*1024)
	b := make([]byte, 64*1024)
	for i := range a {
		a[i] = 'a'
		b[i] = 'b'
	}
	if err := AtomicWriteFile(path, a, 0600); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			payload := a
			if i%2 == 0 {
				payload = b
			}
			if err := AtomicWriteFile(path, payload, 0600); err != nil {
				t.Errorf("write %d: %v", i, err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if len(data) != len(a) {
			t.Fatalf("observed partial file of %d bytes", len(data))
		}
		for _, c := range data[1:] {
			if c != data[0] {
				t.Fatal("observed mixed content")
			}
		}
	}
	wg.Wait()
}
