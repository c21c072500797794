package worker

import (
	"context"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation takes all the transactions from the mempool plus the
// mining reward and writes them into a new block.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Drain the cancel channel so an old cancel signal can't kill
	// this operation before it starts.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel signal")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the mining operation if a cancel or shutdown signal arrives
	// while the nonce search is running.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
			cancel()
		case <-w.shut:
			cancel()
		case <-done:
		}
	}()

	if err := w.state.MinePendingTransactions(ctx, w.state.MinerAccount()); err != nil {
		w.evHandler("worker: runMiningOperation: MINING: WARNING: %s", err)
	}
}
