// Package mempool maintains the pool of pending transactions.
package mempool

import (
	"sync"

	"github.com/powledger/node/foundation/blockchain/database"
)

// Mempool represents the ordered set of transactions waiting to be mined
// into a block. Transactions are kept in arrival order; this model has no
// fees or tips to select on.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the pool.
func (mp *Mempool) Add(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)
}

// Copy returns a copy of the pending transactions in arrival order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.Tx, len(mp.pool))
	copy(txs, mp.pool)

	return txs
}

// Drop removes the first n transactions from the pool. Transactions are
// only ever appended, so the first n entries are exactly the ones a caller
// captured with Copy before mining; anything submitted since stays pending.
func (mp *Mempool) Drop(n int) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if n >= len(mp.pool) {
		mp.pool = nil
		return
	}

	mp.pool = append([]database.Tx(nil), mp.pool[n:]...)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}
