package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindContainer traverses up from startDir looking for a file called name.
// Returns the absolute path if found, empty string otherwise. Stops at the
// filesystem root or one level above the user's home directory.
func FindContainer(startDir, name string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	homeDir, _ := os.UserHomeDir()
	stopAt := ""
	if homeDir != "" {
		stopAt = filepath.Dir(homeDir)
	}

	for {
		candidate := filepath.Join(currentDir, name)
		info, err := os.Stat(candidate)
		if err == nil {
			if !info.IsDir() {
				return candidate, nil
			}
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking for %s in %s: %w", name, currentDir, err)
		}

		if currentDir == stopAt {
			return "", nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

// AtomicWriteFile writes data to a temporary file in the destination
// directory and renames it over path. A crash leaves either the old file or
// the new one, never a partial write.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
