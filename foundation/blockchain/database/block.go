// Package database maintains the block and transaction types that make up
// the ledger, the POW mining support, and the validation rules.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/powledger/node/foundation/blockchain/signature"
)

// GenesisData is the payload carried by the first block of every chain.
const GenesisData = "Genesis Block"

// Validation failures callers can test for with errors.Is.
var (
	ErrInvalidNumber     = errors.New("block is not the next number in the chain")
	ErrInvalidParentHash = errors.New("parent hash doesn't match the previous block")
	ErrInvalidHash       = errors.New("block hash doesn't match the block contents")
	ErrHashNotSolved     = errors.New("block hash doesn't meet the difficulty requirement")
)

// =============================================================================

// Block represents a mined record in the chain. A block is constructed once
// by POW and never mutated after that. Tampering with any field is what the
// validation rules exist to detect.
type Block struct {
	Index      uint64 `json:"index"`
	Timestamp  uint64 `json:"timestamp"`
	Data       string `json:"data"`
	PrevHash   string `json:"previous_hash"`
	Hash       string `json:"hash"`
	Nonce      uint64 `json:"nonce"`
	Difficulty uint   `json:"difficulty"`
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The timestamp is captured once on
// entry and the nonce search starts at zero. The search has no upper bound;
// cancel the context to stop it early.
func POW(ctx context.Context, index uint64, prevHash string, data string, difficulty uint, ev func(v string, args ...any)) (Block, error) {
	b := Block{
		Index:      index,
		Timestamp:  uint64(time.Now().UTC().Unix()),
		Data:       data,
		PrevHash:   prevHash,
		Nonce:      0,
		Difficulty: difficulty,
	}

	ev("database: POW: MINING: started: block[%d]", index)
	defer ev("database: POW: MINING: completed: block[%d]", index)

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED")
			return Block{}, ctx.Err()
		}

		hash := signature.Hash(b.Index, b.PrevHash, b.Timestamp, b.Data, b.Nonce, b.Difficulty)
		if !signature.IsHashSolved(b.Difficulty, hash) {
			b.Nonce++
			continue
		}

		ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.PrevHash, hash)

		b.Hash = hash
		return b, nil
	}
}

// HashBlock recomputes the digest over the block's own fields. The result
// only matches the recorded hash if no field has been altered.
func (b Block) HashBlock() string {
	return signature.Hash(b.Index, b.PrevHash, b.Timestamp, b.Data, b.Nonce, b.Difficulty)
}

// ValidateBlock checks the block can follow the specified previous block.
func (b Block) ValidateBlock(prevBlock Block) error {
	if b.Index != prevBlock.Index+1 {
		return fmt.Errorf("got %d, exp %d: %w", b.Index, prevBlock.Index+1, ErrInvalidNumber)
	}

	if b.PrevHash != prevBlock.Hash {
		return fmt.Errorf("got %s, exp %s: %w", b.PrevHash, prevBlock.Hash, ErrInvalidParentHash)
	}

	if hash := b.HashBlock(); b.Hash != hash {
		return fmt.Errorf("got %s, exp %s: %w", b.Hash, hash, ErrInvalidHash)
	}

	if !signature.IsHashSolved(b.Difficulty, b.Hash) {
		return fmt.Errorf("hash %s, difficulty %d: %w", b.Hash, b.Difficulty, ErrHashNotSolved)
	}

	return nil
}

// ValidateChain folds ValidateBlock over every adjacent pair of blocks in
// order, short-circuiting on the first broken link. An empty chain is
// vacuously valid.
func ValidateChain(chain []Block) error {
	for i := 1; i < len(chain); i++ {
		if err := chain[i].ValidateBlock(chain[i-1]); err != nil {
			return fmt.Errorf("chain broken at block %d: %w", chain[i].Index, err)
		}
	}

	return nil
}
