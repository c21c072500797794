// Package memory implements the ability to save and resume the ledger
// snapshot in memory. Used for testing.
package memory

import (
	"sync"

	"github.com/powledger/node/foundation/blockchain/storage"
)

// Memory represents the storage implementation for keeping the ledger
// snapshot in memory. This implements the storage.Storage interface.
type Memory struct {
	mu       sync.RWMutex
	snapshot storage.Snapshot
	saved    bool
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Save keeps the specified snapshot in memory.
func (m *Memory) Save(snapshot storage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot = snapshot
	m.saved = true

	return nil
}

// Load returns the last saved snapshot.
func (m *Memory) Load() (storage.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.saved {
		return storage.Snapshot{}, storage.ErrNotExist
	}

	return m.snapshot, nil
}

// Reset drops the saved snapshot.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot = storage.Snapshot{}
	m.saved = false

	return nil
}
