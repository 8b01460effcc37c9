package container

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/backpack/internal/configs"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/utils"
)

// FilePerm is the mode every container file is written with.
const FilePerm os.FileMode = 0600

// ReadFile loads and decodes the container at path.
func ReadFile(path string) (*AgentContainer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrContainerNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(data)
}

// WriteFile encodes c and atomically replaces path with it.
func WriteFile(path string, c *AgentContainer) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := utils.AtomicWriteFile(path, data, FilePerm); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrWriteFailed, err)
	}
	return nil
}

// Create writes a new container. An existing file is only replaced when
// force is set.
func Create(path string, c *AgentContainer, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", kerrors.ErrContainerExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}
	return WriteFile(path, c)
}

// Locate resolves the container path. An explicit path wins, then
// BACKPACK_CONTAINER, then the nearest agent.lock at or above the working
// directory.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	if fromEnv := os.Getenv(configs.ContainerPathEnv); fromEnv != "" {
		return filepath.Abs(fromEnv)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	found, err := utils.FindContainer(cwd, configs.ContainerFileName)
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("%w: no %s in %s or any parent directory", kerrors.ErrContainerNotFound, configs.ContainerFileName, cwd)
	}
	return found, nil
}
