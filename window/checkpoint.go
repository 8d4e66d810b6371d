package window

import (
	"sync"

	"github.com/joeycumines/coven/scrivener"
)

// CheckpointStore is a key-value of (reader, journal) -> position, letting a
// windowing daemon resume its tail from the last committed position after a
// restart instead of re-observing every draft chunk since the beginning of
// the journal. This package ships only an in-memory implementation; a file-
// or database-backed CheckpointStore is for an embedder to supply.
type CheckpointStore interface {
	Load(reader, journal string) (scrivener.Position, bool)
	Save(reader, journal string, pos scrivener.Position)
}

// MemoryCheckpointStore is a CheckpointStore backed by a plain map, safe for
// concurrent use by multiple windowing daemons sharing one store.
type MemoryCheckpointStore struct {
	mu    sync.Mutex
	marks map[[2]string]scrivener.Position
}

// NewMemoryCheckpointStore constructs an empty MemoryCheckpointStore.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{marks: make(map[[2]string]scrivener.Position)}
}

// Load returns the last position saved for (reader, journal), if any.
func (m *MemoryCheckpointStore) Load(reader, journal string) (scrivener.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.marks[[2]string{reader, journal}]
	return pos, ok
}

// Save records pos as the latest committed position for (reader, journal).
func (m *MemoryCheckpointStore) Save(reader, journal string, pos scrivener.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks[[2]string{reader, journal}] = pos
}
