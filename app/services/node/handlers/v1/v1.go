// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/powledger/node/app/services/node/handlers/v1/private"
	"github.com/powledger/node/app/services/node/handlers/v1/public"
	"github.com/powledger/node/foundation/blockchain/state"
	"github.com/powledger/node/foundation/events"
	"github.com/powledger/node/foundation/nameservice"
	"github.com/powledger/node/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain/list", pbl.Chain)
	app.Handle(http.MethodGet, version, "/balances/list/:account", pbl.Balance)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/add", pbl.AddTransaction)
	app.Handle(http.MethodPost, version, "/mine/:account", pbl.Mine)
	app.Handle(http.MethodGet, version, "/mining/signal", pbl.SignalMining)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/chain", prv.Chain)
	app.Handle(http.MethodPost, version, "/node/peers", prv.RegisterNode)
	app.Handle(http.MethodPost, version, "/node/resolve", prv.ResolveConflicts)
}
