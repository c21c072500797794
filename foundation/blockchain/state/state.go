// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/powledger/node/foundation/blockchain/database"
	"github.com/powledger/node/foundation/blockchain/genesis"
	"github.com/powledger/node/foundation/blockchain/mempool"
	"github.com/powledger/node/foundation/blockchain/peer"
	"github.com/powledger/node/foundation/blockchain/signature"
	"github.com/powledger/node/foundation/blockchain/storage"
)

// Failure conditions the ledger reports to callers.
var (
	ErrEmptyChain   = errors.New("chain is empty")
	ErrInvalidBlock = errors.New("invalid block")
)

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of mining and persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis      genesis.Genesis
	MinerAccount string
	Storage      storage.Storage
	KnownPeers   *peer.Registry
	EvHandler    EventHandler
}

// State manages the ledger. All mutation assumes a single logical writer;
// the mutex is the mutual-exclusion boundary that enforces it.
type State struct {
	mu sync.Mutex

	genesis      genesis.Genesis
	minerAccount string
	chain        []database.Block
	evHandler    EventHandler

	mempool    *mempool.Mempool
	knownPeers *peer.Registry
	storage    storage.Storage

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start the background mining support.
	Worker Worker
}

// New constructs a new ledger. If the configured storage holds a snapshot,
// the ledger resumes from it; otherwise the genesis block is mined using
// the configured difficulty.
func New(ctx context.Context, cfg Config) (*State, error) {

	// A difficulty beyond the digest length can never be satisfied; the
	// nonce search would spin forever.
	if cfg.Genesis.Difficulty > signature.MaxDifficulty {
		return nil, fmt.Errorf("difficulty %d exceeds the maximum of %d", cfg.Genesis.Difficulty, signature.MaxDifficulty)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewRegistry()
	}

	s := State{
		genesis:      cfg.Genesis,
		minerAccount: cfg.MinerAccount,
		evHandler:    ev,
		mempool:      mempool.New(),
		knownPeers:   knownPeers,
		storage:      cfg.Storage,
	}

	if cfg.Storage != nil {
		snapshot, err := cfg.Storage.Load()
		switch {
		case err == nil:
			if err := s.resume(snapshot); err != nil {
				return nil, err
			}
			return &s, nil

		case errors.Is(err, storage.ErrNotExist):
			// Nothing to resume from, mine a fresh genesis block.

		default:
			return nil, err
		}
	}

	// Create the first block of the chain. The parent hash of the genesis
	// block is the zero sentinel.
	gb, err := database.POW(ctx, 0, "0", database.GenesisData, cfg.Genesis.Difficulty, ev)
	if err != nil {
		return nil, err
	}
	s.chain = append(s.chain, gb)

	return &s, nil
}

// resume restores the ledger from a snapshot, re-validating the chain
// before accepting it.
func (s *State) resume(snapshot storage.Snapshot) error {
	if len(snapshot.Chain) == 0 {
		return ErrEmptyChain
	}

	if err := database.ValidateChain(snapshot.Chain); err != nil {
		return fmt.Errorf("snapshot rejected: %w", err)
	}

	if snapshot.Difficulty > signature.MaxDifficulty {
		return fmt.Errorf("snapshot rejected: difficulty %d exceeds the maximum of %d", snapshot.Difficulty, signature.MaxDifficulty)
	}

	s.genesis.Difficulty = snapshot.Difficulty
	s.genesis.MiningReward = snapshot.MiningReward
	s.chain = append(s.chain, snapshot.Chain...)

	for _, tx := range snapshot.PendingTransactions {
		s.mempool.Add(tx)
	}
	s.knownPeers.Replace(snapshot.Nodes)

	return nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================

// Genesis returns a copy of the chain level configuration.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// MinerAccount returns the account credited by the background miner.
func (s *State) MinerAccount() string {
	return s.minerAccount
}

// LatestBlock returns the current tail of the chain.
func (s *State) LatestBlock() database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain[len(s.chain)-1]
}

// Chain returns a copy of the chain.
func (s *State) Chain() []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := make([]database.Block, len(s.chain))
	copy(chain, s.chain)

	return chain
}

// Height returns the number of blocks in the chain.
func (s *State) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.chain)
}

// Mempool returns a copy of the pending transactions.
func (s *State) Mempool() []database.Tx {
	return s.mempool.Copy()
}

// Validate checks the integrity of the full chain.
func (s *State) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return database.ValidateChain(s.chain)
}

// =============================================================================

// RegisterNode performs an idempotent insert of the address into the node
// registry. It reports whether the address was new.
func (s *State) RegisterNode(address string) bool {
	added := s.knownPeers.Register(address)
	s.evHandler("state: RegisterNode: address[%s] added[%v]", address, added)

	return added
}

// KnownNodes returns a copy of the node registry.
func (s *State) KnownNodes() map[string]bool {
	return s.knownPeers.Copy()
}

// =============================================================================

// Snapshot captures the full serialized form of the ledger.
func (s *State) Snapshot() storage.Snapshot {
	s.mu.Lock()
	chain := make([]database.Block, len(s.chain))
	copy(chain, s.chain)
	s.mu.Unlock()

	return storage.Snapshot{
		Chain:               chain,
		PendingTransactions: s.mempool.Copy(),
		Difficulty:          s.genesis.Difficulty,
		MiningReward:        s.genesis.MiningReward,
		Nodes:               s.knownPeers.Copy(),
	}
}

// Save writes the current snapshot to the configured storage.
func (s *State) Save() error {
	if s.storage == nil {
		return errors.New("no storage configured")
	}

	return s.storage.Save(s.Snapshot())
}
