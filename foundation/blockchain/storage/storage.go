// Package storage defines the snapshot schema for the ledger and the
// behavior required of any package that persists it.
package storage

import (
	"errors"

	"github.com/powledger/node/foundation/blockchain/database"
)

// Load failure kinds. ErrNotExist means there is nothing to resume from;
// ErrBadSnapshot means the content exists but can't be parsed.
var (
	ErrNotExist    = errors.New("snapshot does not exist")
	ErrBadSnapshot = errors.New("snapshot can't be parsed")
)

// Snapshot is the full serialized form of a ledger. load(save(L)) must
// reproduce an observably identical ledger.
type Snapshot struct {
	Chain               []database.Block `json:"chain"`
	PendingTransactions []database.Tx    `json:"pending_transactions"`
	Difficulty          uint             `json:"difficulty"`
	MiningReward        float64          `json:"mining_reward"`
	Nodes               map[string]bool  `json:"nodes"`
}

// Storage interface represents the behavior required to be implemented by
// any package providing support for saving and resuming the ledger.
type Storage interface {
	Save(snapshot Snapshot) error
	Load() (Snapshot, error)
	Reset() error
}
