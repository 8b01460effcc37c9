// Package memory reads and updates the memory layer of an agent container.
//
// Agent programs started by "backpack run" find their container through the
// BACKPACK_CONTAINER variable and update their own session state:
//
//	m := memory.NewManager(path, masterKey)
//	next, err := m.WriteMemory(memory.Increment("session_count", 1))
//
// Only the memory layer is re-encrypted; the credentials and personality
// layers are written back byte for byte. Writers are not coordinated: two
// concurrent writers race and the last one wins, but readers never see a
// partially written file.
package memory
