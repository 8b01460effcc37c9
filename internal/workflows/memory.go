package workflows

import (
	"context"

	"github.com/PolarWolf314/backpack/internal/container"
	"github.com/PolarWolf314/backpack/internal/memory"
	"github.com/PolarWolf314/backpack/internal/secrets"
)

// MemoryOptions configures the memory workflows.
type MemoryOptions struct {
	ContainerPath string
	MasterKey     secrets.MasterKey
}

// MemoryShow returns the current memory snapshot.
func MemoryShow(ctx context.Context, opts MemoryOptions) (container.MemorySnapshot, error) {
	return memory.NewManager(opts.ContainerPath, opts.MasterKey).ReadMemory()
}

// MemoryUpdate applies merge to the memory layer and returns the stored snapshot.
func MemoryUpdate(ctx context.Context, opts MemoryOptions, merge memory.MergeFunc) (container.MemorySnapshot, error) {
	return memory.NewManager(opts.ContainerPath, opts.MasterKey).WriteMemory(merge)
}
