// Package disk implements the ability to save and resume the ledger
// snapshot as a JSON document on disk.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/powledger/node/foundation/blockchain/storage"
)

// Disk represents the storage implementation for keeping the ledger
// snapshot in a single file on disk. This implements the storage.Storage
// interface.
type Disk struct {
	path string
}

// New constructs a Disk value for use, creating the parent directory
// if needed.
func New(path string) (*Disk, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return &Disk{path: path}, nil
}

// Save writes the snapshot to disk in a human readable format.
func (d *Disk) Save(snapshot storage.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(d.path, data, 0600); err != nil {
		return err
	}

	return nil
}

// Load reads the snapshot back from disk.
func (d *Disk) Load() (storage.Snapshot, error) {
	content, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.Snapshot{}, fmt.Errorf("%s: %w", d.path, storage.ErrNotExist)
		}
		return storage.Snapshot{}, err
	}

	var snapshot storage.Snapshot
	if err := json.Unmarshal(content, &snapshot); err != nil {
		return storage.Snapshot{}, fmt.Errorf("%s: %v: %w", d.path, err, storage.ErrBadSnapshot)
	}

	return snapshot, nil
}

// Reset removes the snapshot from disk.
func (d *Disk) Reset() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
