package state_test

import (
	"context"
	"strings"
	"testing"

	"github.com/powledger/node/foundation/blockchain/database"
	"github.com/powledger/node/foundation/blockchain/genesis"
	"github.com/powledger/node/foundation/blockchain/state"
	"github.com/powledger/node/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func newState(t *testing.T, gen genesis.Genesis) *state.State {
	t.Helper()

	st, err := state.New(context.Background(), state.Config{
		Genesis:      gen,
		MinerAccount: "Miner1",
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %v", err)
	}

	return st
}

// =============================================================================

func Test_Balances(t *testing.T) {
	t.Log("Given the need to derive balances from mined transactions.")
	{
		ctx := context.Background()
		st := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})

		if h := st.Height(); h != 1 {
			t.Fatalf("\t%s\tTest 0:\tShould start with only the genesis block: %d", failed, h)
		}
		t.Logf("\t%s\tTest 0:\tShould start with only the genesis block.", success)

		if err := st.SubmitTransaction(database.NewTx("Alice", "Bob", 50)); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
		}
		if err := st.SubmitTransaction(database.NewTx("Bob", "Charlie", 25)); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to submit transactions.", success)

		if err := st.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine the pending pool: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to mine the pending pool.", success)

		if c := len(st.Mempool()); c != 0 {
			t.Fatalf("\t%s\tTest 0:\tShould have an empty pool after mining: %d", failed, c)
		}
		t.Logf("\t%s\tTest 0:\tShould have an empty pool after mining.", success)

		if err := st.SubmitTransaction(database.NewTx("Charlie", "Alice", 10)); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
		}

		if err := st.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine the pending pool again: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to mine the pending pool again.", success)

		balances := map[string]float64{
			"Alice":   -40,
			"Bob":     25,
			"Charlie": 15,
			"Miner1":  200,
		}

		for account, exp := range balances {
			got := st.BalanceOf(account)
			if got != exp {
				t.Logf("\t%s\tTest 0:\tgot: %v", failed, got)
				t.Logf("\t%s\tTest 0:\texp: %v", failed, exp)
				t.Fatalf("\t%s\tTest 0:\tShould have the right balance for %s.", failed, account)
			}
			t.Logf("\t%s\tTest 0:\tShould have the right balance for %s.", success, account)
		}

		if err := st.Validate(); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould have a valid chain: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould have a valid chain.", success)
	}
}

func Test_MineEmptyPool(t *testing.T) {
	t.Log("Given the need to mine a block with no pending transactions.")
	{
		ctx := context.Background()
		st := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})

		if err := st.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine an empty pool: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to mine an empty pool.", success)

		txs := database.DecodeTxs(st.LatestBlock().Data)
		if len(txs) != 1 {
			t.Fatalf("\t%s\tTest 0:\tShould carry only the reward transaction: %d", failed, len(txs))
		}
		t.Logf("\t%s\tTest 0:\tShould carry only the reward transaction.", success)

		if txs[0].Sender != database.RewardAccount || txs[0].Recipient != "Miner1" {
			t.Fatalf("\t%s\tTest 0:\tShould credit the reward to the miner.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould credit the reward to the miner.", success)

		if got := st.BalanceOf("Miner1"); got != 100 {
			t.Logf("\t%s\tTest 0:\tgot: %v", failed, got)
			t.Logf("\t%s\tTest 0:\texp: %v", failed, 100)
			t.Fatalf("\t%s\tTest 0:\tShould have the reward as the miner balance.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould have the reward as the miner balance.", success)
	}
}

func Test_SubmitDuringMining(t *testing.T) {
	t.Log("Given the need to keep transactions submitted while a block is being mined.")
	{
		ctx := context.Background()

		// Submit a transaction into the pool from inside the event handler
		// the moment the nonce search for block 1 starts, so it lands while
		// mining is in flight.
		var st *state.State
		ev := func(v string, args ...any) {
			if !strings.HasPrefix(v, "database: POW: MINING: started") {
				return
			}
			if st == nil || len(args) != 1 {
				return
			}
			if index, ok := args[0].(uint64); !ok || index != 1 {
				return
			}
			if err := st.SubmitTransaction(database.NewTx("Alice", "Bob", 50)); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould be able to submit during mining: %v", failed, err)
			}
		}

		var err error
		st, err = state.New(ctx, state.Config{
			Genesis:      genesis.Genesis{Difficulty: 1, MiningReward: 100},
			MinerAccount: "Miner1",
			EvHandler:    ev,
		})
		if err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to construct the ledger: %v", failed, err)
		}

		if err := st.SubmitTransaction(database.NewTx("Charlie", "Dave", 25)); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
		}

		if err := st.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine the pending pool: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to mine the pending pool.", success)

		pool := st.Mempool()
		if len(pool) != 1 || pool[0].Sender != "Alice" {
			t.Logf("\t%s\tTest 0:\tgot: %d", failed, len(pool))
			t.Logf("\t%s\tTest 0:\texp: %d", failed, 1)
			t.Fatalf("\t%s\tTest 0:\tShould keep the late transaction pending.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould keep the late transaction pending.", success)

		if got := st.BalanceOf("Dave"); got != 25 {
			t.Fatalf("\t%s\tTest 0:\tShould have mined the captured transaction: %v", failed, got)
		}
		t.Logf("\t%s\tTest 0:\tShould have mined the captured transaction.", success)

		if err := st.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine the next block: %v", failed, err)
		}

		if got := st.BalanceOf("Bob"); got != 50 {
			t.Logf("\t%s\tTest 0:\tgot: %v", failed, got)
			t.Logf("\t%s\tTest 0:\texp: %v", failed, 50)
			t.Fatalf("\t%s\tTest 0:\tShould mine the late transaction in the next block.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould mine the late transaction in the next block.", success)

		if c := len(st.Mempool()); c != 0 {
			t.Fatalf("\t%s\tTest 0:\tShould have an empty pool at the end: %d", failed, c)
		}
		t.Logf("\t%s\tTest 0:\tShould have an empty pool at the end.", success)
	}
}

func Test_RejectExcessiveDifficulty(t *testing.T) {
	t.Log("Given the need to reject a difficulty no hash can ever satisfy.")
	{
		_, err := state.New(context.Background(), state.Config{
			Genesis:      genesis.Genesis{Difficulty: 65, MiningReward: 100},
			MinerAccount: "Miner1",
		})
		if err == nil {
			t.Fatalf("\t%s\tTest 0:\tShould refuse to construct the ledger.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould refuse to construct the ledger.", success)
	}
}

func Test_SubmitInvalidTransaction(t *testing.T) {
	t.Log("Given the need to reject invalid transactions at submission.")
	{
		st := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})

		if err := st.SubmitTransaction(database.NewTx("Alice", "Bob", -5)); err == nil {
			t.Fatalf("\t%s\tTest 0:\tShould reject a negative amount.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould reject a negative amount.", success)

		if c := len(st.Mempool()); c != 0 {
			t.Fatalf("\t%s\tTest 0:\tShould leave the pool untouched: %d", failed, c)
		}
		t.Logf("\t%s\tTest 0:\tShould leave the pool untouched.", success)
	}
}

// =============================================================================

func Test_ResolveConflicts(t *testing.T) {
	t.Log("Given the need to adopt the longest valid chain from peers.")
	{
		ctx := context.Background()

		donor := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})
		if err := donor.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to grow the donor chain: %v", failed, err)
		}
		if err := donor.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to grow the donor chain: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to grow the donor chain.", success)

		local := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})

		if replaced := local.ResolveConflicts([][]database.Block{donor.Chain()}); !replaced {
			t.Fatalf("\t%s\tTest 0:\tShould replace the local chain with a longer one.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould replace the local chain with a longer one.", success)

		if h := local.Height(); h != donor.Height() {
			t.Logf("\t%s\tTest 0:\tgot: %d", failed, h)
			t.Logf("\t%s\tTest 0:\texp: %d", failed, donor.Height())
			t.Fatalf("\t%s\tTest 0:\tShould have the donor height.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould have the donor height.", success)

		if replaced := local.ResolveConflicts([][]database.Block{donor.Chain()}); replaced {
			t.Fatalf("\t%s\tTest 0:\tShould keep the local chain against an equal length candidate.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould keep the local chain against an equal length candidate.", success)
	}

	t.Log("Given the need to reject a longer but tampered chain.")
	{
		ctx := context.Background()

		donor := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})
		if err := donor.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 1:\tShould be able to grow the donor chain: %v", failed, err)
		}

		candidate := donor.Chain()
		candidate[1].Data = "rewritten history"

		local := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})

		if replaced := local.ResolveConflicts([][]database.Block{candidate}); replaced {
			t.Fatalf("\t%s\tTest 1:\tShould reject the tampered candidate.", failed)
		}
		t.Logf("\t%s\tTest 1:\tShould reject the tampered candidate.", success)

		if h := local.Height(); h != 1 {
			t.Fatalf("\t%s\tTest 1:\tShould keep the local chain: %d", failed, h)
		}
		t.Logf("\t%s\tTest 1:\tShould keep the local chain.", success)
	}
}

func Test_IndependentLedgersDiverge(t *testing.T) {
	t.Log("Given the need for independent ledgers to mine independent chains.")
	{
		ctx := context.Background()

		st1 := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})
		st2 := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})

		if err := st1.SubmitTransaction(database.NewTx("Alice", "Bob", 50)); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
		}
		if err := st2.SubmitTransaction(database.NewTx("Charlie", "Dave", 75)); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
		}

		if err := st1.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine on the first ledger: %v", failed, err)
		}
		if err := st2.MinePendingTransactions(ctx, "Miner2"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine on the second ledger: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to mine on both ledgers.", success)

		if st1.LatestBlock().Hash == st2.LatestBlock().Hash {
			t.Fatalf("\t%s\tTest 0:\tShould have diverging chain tips.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould have diverging chain tips.", success)

		if err := st1.Validate(); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould keep the first chain valid: %v", failed, err)
		}
		if err := st2.Validate(); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould keep the second chain valid: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould keep both chains valid.", success)
	}
}

// =============================================================================

func Test_SnapshotResume(t *testing.T) {
	t.Log("Given the need to resume the ledger from a saved snapshot.")
	{
		ctx := context.Background()

		strg, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to construct storage: %v", failed, err)
		}

		cfg := state.Config{
			Genesis:      genesis.Genesis{Difficulty: 1, MiningReward: 100},
			MinerAccount: "Miner1",
			Storage:      strg,
		}

		st1, err := state.New(ctx, cfg)
		if err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to construct the ledger: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to construct the ledger.", success)

		if err := st1.SubmitTransaction(database.NewTx("Alice", "Bob", 50)); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
		}
		if err := st1.MinePendingTransactions(ctx, "Miner1"); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine the pending pool: %v", failed, err)
		}

		if err := st1.SubmitTransaction(database.NewTx("Bob", "Charlie", 5)); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to submit a pending transaction: %v", failed, err)
		}
		st1.RegisterNode("http://localhost:9080")

		if err := st1.Save(); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to save the snapshot: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to save the snapshot.", success)

		st2, err := state.New(ctx, cfg)
		if err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to resume the ledger: %v", failed, err)
		}
		t.Logf("\t%s\tTest 0:\tShould be able to resume the ledger.", success)

		if st2.Height() != st1.Height() {
			t.Logf("\t%s\tTest 0:\tgot: %d", failed, st2.Height())
			t.Logf("\t%s\tTest 0:\texp: %d", failed, st1.Height())
			t.Fatalf("\t%s\tTest 0:\tShould resume with the same height.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould resume with the same height.", success)

		if st2.BalanceOf("Bob") != st1.BalanceOf("Bob") {
			t.Fatalf("\t%s\tTest 0:\tShould resume with the same balances.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould resume with the same balances.", success)

		if len(st2.Mempool()) != 1 {
			t.Fatalf("\t%s\tTest 0:\tShould resume with the pending pool: %d", failed, len(st2.Mempool()))
		}
		t.Logf("\t%s\tTest 0:\tShould resume with the pending pool.", success)

		if _, exists := st2.KnownNodes()["http://localhost:9080"]; !exists {
			t.Fatalf("\t%s\tTest 0:\tShould resume with the node registry.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould resume with the node registry.", success)

		gen := st2.Genesis()
		if gen.Difficulty != 1 || gen.MiningReward != 100 {
			t.Fatalf("\t%s\tTest 0:\tShould resume with the chain settings.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould resume with the chain settings.", success)
	}
}

// =============================================================================

func Test_RegisterNode(t *testing.T) {
	t.Log("Given the need to register nodes idempotently.")
	{
		st := newState(t, genesis.Genesis{Difficulty: 1, MiningReward: 100})

		if added := st.RegisterNode("http://localhost:9080"); !added {
			t.Fatalf("\t%s\tTest 0:\tShould report a new address as added.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould report a new address as added.", success)

		if added := st.RegisterNode("http://localhost:9080"); added {
			t.Fatalf("\t%s\tTest 0:\tShould report a duplicate address as not added.", failed)
		}
		t.Logf("\t%s\tTest 0:\tShould report a duplicate address as not added.", success)

		if c := len(st.KnownNodes()); c != 1 {
			t.Fatalf("\t%s\tTest 0:\tShould have a single registered node: %d", failed, c)
		}
		t.Logf("\t%s\tTest 0:\tShould have a single registered node.", success)
	}
}
