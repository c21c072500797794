// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/powledger/node/business/web/errs"
	"github.com/powledger/node/foundation/blockchain/database"
	"github.com/powledger/node/foundation/blockchain/state"
	"github.com/powledger/node/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.LatestBlock()

	status := struct {
		LatestBlockHash   string          `json:"latest_block_hash"`
		LatestBlockNumber uint64          `json:"latest_block_number"`
		KnownNodes        map[string]bool `json:"known_nodes"`
	}{
		LatestBlockHash:   latest.Hash,
		LatestBlockNumber: latest.Index,
		KnownNodes:        h.State.KnownNodes(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Chain returns the raw blocks of the local chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Chain(), http.StatusOK)
}

// RegisterNode performs an idempotent insert of a node address into the
// registry.
func (h Handlers) RegisterNode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var reg struct {
		Address string `json:"address"`
	}
	if err := web.Decode(r, &reg); err != nil {
		return err
	}
	if reg.Address == "" {
		return errs.NewTrusted(errors.New("address is required"), http.StatusBadRequest)
	}

	added := h.State.RegisterNode(reg.Address)

	resp := struct {
		Address string `json:"address"`
		Added   bool   `json:"added"`
	}{
		Address: reg.Address,
		Added:   added,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ResolveConflicts runs the longest-chain rule against the candidate
// chains in the request and reports whether the local chain was replaced.
func (h Handlers) ResolveConflicts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var body struct {
		Chains [][]database.Block `json:"chains"`
	}
	if err := web.Decode(r, &body); err != nil {
		return err
	}

	replaced := h.State.ResolveConflicts(body.Chains)

	resp := struct {
		Replaced bool `json:"replaced"`
		Height   int  `json:"height"`
	}{
		Replaced: replaced,
		Height:   h.State.Height(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
