package state

import (
	"context"
	"fmt"

	"github.com/powledger/node/foundation/blockchain/database"
)

// AddBlock mines a new block carrying the specified payload, chained to the
// current tail, and appends it once it validates. Mining is CPU bound and
// blocks the caller for the duration of the nonce search.
func (s *State) AddBlock(ctx context.Context, data string) error {
	s.mu.Lock()
	if len(s.chain) == 0 {
		s.mu.Unlock()
		return ErrEmptyChain
	}
	latest := s.chain[len(s.chain)-1]
	s.mu.Unlock()

	block, err := database.POW(ctx, latest.Index+1, latest.Hash, data, s.genesis.Difficulty, s.evHandler)
	if err != nil {
		return err
	}

	return s.appendBlock(block)
}

// appendBlock stages the mined block against the current tail and appends
// it only if validation passes. A failure here signals corruption of an
// already appended chain and leaves the ledger untouched.
func (s *State) appendBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.chain[len(s.chain)-1]
	if err := block.ValidateBlock(latest); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidBlock)
	}

	s.chain = append(s.chain, block)

	return nil
}

// SubmitTransaction validates the transaction and adds it to the pending
// pool. There is no duplicate detection and no check of sender funds.
func (s *State) SubmitTransaction(tx database.Tx) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, database.ErrInvalidTransaction)
	}

	s.mempool.Add(tx)
	s.evHandler("state: SubmitTransaction: tx[%s -> %s] amount[%v] pool[%d]", tx.Sender, tx.Recipient, tx.Amount, s.mempool.Count())

	return nil
}

// MinePendingTransactions batches the pending pool plus a mining reward
// into the payload of a new block. Only the transactions captured in the
// block are removed from the pool, and only after the block is confirmed
// appended: a mining failure loses nothing, and transactions submitted
// while the nonce search was running stay pending for the next pass.
func (s *State) MinePendingTransactions(ctx context.Context, minerAccount string) error {
	s.evHandler("state: MinePendingTransactions: MINING: miner[%s] pool[%d]", minerAccount, s.mempool.Count())

	txs := s.mempool.Copy()
	mined := len(txs)

	reward := database.NewTx(database.RewardAccount, minerAccount, s.genesis.MiningReward)
	txs = append(txs, reward)

	data, err := database.EncodeTxs(txs)
	if err != nil {
		return err
	}

	if err := s.AddBlock(ctx, data); err != nil {
		return err
	}

	s.mempool.Drop(mined)

	return nil
}
