// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/powledger/node/business/web/errs"
	"github.com/powledger/node/foundation/blockchain/database"
	"github.com/powledger/node/foundation/blockchain/state"
	"github.com/powledger/node/foundation/events"
	"github.com/powledger/node/foundation/nameservice"
	"github.com/powledger/node/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Genesis returns the chain level configuration.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Chain returns the full serialized ledger snapshot.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	snapshot := h.State.Snapshot()
	return web.Respond(ctx, w, snapshot, http.StatusOK)
}

// Balance replays the chain and returns the derived balance for the
// specified account.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")
	amount := h.State.BalanceOf(account)

	resp := balance{
		Account: account,
		Balance: amount,
		Message: fmt.Sprintf("Balance of %s: %v", account, amount),
	}
	if h.NS != nil {
		if name := h.NS.Lookup(account); name != account {
			resp.Name = name
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.Mempool()

	txs := make([]tx, len(pool))
	for i, dbTx := range pool {
		txs[i] = h.toTx(dbTx)
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// AddTransaction submits a new transaction to the pending pool.
func (h Handlers) AddTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return err
	}

	dbTx := database.NewTx(ntx.Sender, ntx.Recipient, ntx.Amount)

	h.Log.Infow("add tran", "traceid", v.TraceID, "sender", dbTx.Sender, "recipient", dbTx.Recipient, "amount", dbTx.Amount)
	if err := h.State.SubmitTransaction(dbTx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := message{
		Status: "transaction added to pending pool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine batches the pending pool into a new block, crediting the reward to
// the specified account. This call blocks for the duration of the nonce
// search.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	if err := h.State.MinePendingTransactions(ctx, account); err != nil {
		return errs.NewTrusted(fmt.Errorf("error mining block: %w", err), http.StatusBadRequest)
	}

	resp := message{
		Status: fmt.Sprintf("block mined successfully, reward sent to %s", account),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining asks the background worker to run a mining pass without
// holding the request open.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := message{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
