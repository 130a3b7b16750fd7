// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/alex-kampa/realitycheck/app/services/oracle/handlers/v1/accountgrp"
	"github.com/alex-kampa/realitycheck/app/services/oracle/handlers/v1/eventgrp"
	"github.com/alex-kampa/realitycheck/app/services/oracle/handlers/v1/questiongrp"
	"github.com/alex-kampa/realitycheck/foundation/events"
	"github.com/alex-kampa/realitycheck/foundation/nameservice"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/arbitrator"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/callback"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/alex-kampa/realitycheck/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log        *zap.SugaredLogger
	State      *state.State
	Indexer    *indexer.Indexer
	Arbitrator *arbitrator.Arbitrator
	Callbacks  *callback.Dispatcher
	HTTPClient *http.Client
	NS         *nameservice.NameService
	Evts       *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	qgh := questiongrp.Handlers{
		Log:        cfg.Log,
		State:      cfg.State,
		Indexer:    cfg.Indexer,
		Arbitrator: cfg.Arbitrator,
		Callbacks:  cfg.Callbacks,
		HTTPClient: cfg.HTTPClient,
	}

	app.Handle(http.MethodPost, version, "/questions", qgh.Ask)
	app.Handle(http.MethodGet, version, "/questions/:id", qgh.Query)
	app.Handle(http.MethodPost, version, "/questions/:id/fund", qgh.Fund)
	app.Handle(http.MethodPost, version, "/questions/:id/answers", qgh.SubmitAnswer)
	app.Handle(http.MethodPost, version, "/questions/:id/commitments", qgh.SubmitCommitment)
	app.Handle(http.MethodPost, version, "/questions/:id/reveals", qgh.SubmitReveal)
	app.Handle(http.MethodGet, version, "/questions/:id/final", qgh.FinalAnswer)
	app.Handle(http.MethodGet, version, "/questions/:id/history", qgh.History)
	app.Handle(http.MethodPost, version, "/questions/:id/arbitration", qgh.RequestArbitration)
	app.Handle(http.MethodPost, version, "/questions/:id/arbitration/answer", qgh.ArbitrationAnswer)
	app.Handle(http.MethodPost, version, "/questions/:id/claim", qgh.Claim)
	app.Handle(http.MethodPost, version, "/questions/:id/callbacks", qgh.FundCallback)
	app.Handle(http.MethodPost, version, "/questions/:id/callbacks/send", qgh.SendCallback)

	agh := accountgrp.Handlers{
		Log:        cfg.Log,
		State:      cfg.State,
		Arbitrator: cfg.Arbitrator,
		NS:         cfg.NS,
	}

	app.Handle(http.MethodGet, version, "/balances", agh.Balances)
	app.Handle(http.MethodGet, version, "/balances/:account", agh.Balance)
	app.Handle(http.MethodPost, version, "/withdraw", agh.Withdraw)
	app.Handle(http.MethodPost, version, "/claims", agh.Claims)
	app.Handle(http.MethodGet, version, "/arbitrator", agh.QueryArbitrator)
	app.Handle(http.MethodPost, version, "/arbitrator/requests", agh.RequestArbitration)
	app.Handle(http.MethodPost, version, "/arbitrator/fee", agh.SetFee)
	app.Handle(http.MethodPost, version, "/arbitrator/withdraw", agh.ArbitratorWithdraw)

	egh := eventgrp.Handlers{
		Log:  cfg.Log,
		Evts: cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", egh.Events)
}
