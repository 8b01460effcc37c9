package memory

import (
	"github.com/PolarWolf314/backpack/internal/container"
	"github.com/PolarWolf314/backpack/internal/secrets"
)

// MergeFunc computes the next snapshot from the previous one. prev is a
// private copy and may be modified and returned.
type MergeFunc func(prev container.MemorySnapshot) (container.MemorySnapshot, error)

// Manager works on the container at one path with one master key.
type Manager struct {
	path string
	key  secrets.MasterKey
}

// NewManager returns a Manager for the container at path.
func NewManager(path string, key secrets.MasterKey) *Manager {
	return &Manager{path: path, key: key}
}

// Path returns the container path.
func (m *Manager) Path() string { return m.path }

// ReadMemory decrypts the memory layer.
func (m *Manager) ReadMemory() (container.MemorySnapshot, error) {
	u, err := m.unlock()
	if err != nil {
		return nil, err
	}
	defer u.Close()

	return u.Memory()
}

// WriteMemory reads the current snapshot, applies merge and atomically
// rewrites the container with the result.
func (m *Manager) WriteMemory(merge MergeFunc) (container.MemorySnapshot, error) {
	u, err := m.unlock()
	if err != nil {
		return nil, err
	}
	defer u.Close()

	prev, err := u.Memory()
	if err != nil {
		return nil, err
	}

	next, err := merge(prev)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = container.MemorySnapshot{}
	}

	if err := u.SetMemory(next); err != nil {
		return nil, err
	}
	if err := container.WriteFile(m.path, u.Container()); err != nil {
		return nil, err
	}
	return next, nil
}

func (m *Manager) unlock() (*container.Unlocked, error) {
	c, err := container.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	return container.Unlock(c, m.key)
}
