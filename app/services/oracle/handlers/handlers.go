// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/alex-kampa/realitycheck/app/services/oracle/handlers/debug/checkgrp"
	v1 "github.com/alex-kampa/realitycheck/app/services/oracle/handlers/v1"
	"github.com/alex-kampa/realitycheck/business/web/v1/mid"
	"github.com/alex-kampa/realitycheck/foundation/events"
	"github.com/alex-kampa/realitycheck/foundation/nameservice"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/arbitrator"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/callback"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/alex-kampa/realitycheck/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown   chan os.Signal
	Log        *zap.SugaredLogger
	Registry   *prometheus.Registry
	State      *state.State
	Indexer    *indexer.Indexer
	Arbitrator *arbitrator.Arbitrator
	Callbacks  *callback.Dispatcher
	HTTPClient *http.Client
	NS         *nameservice.NameService
	Evts       *events.Events
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(cfg.Registry),
		mid.Cors("*"),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors("*"))

	// Load the v1 routes.
	v1.Routes(app, v1.Config{
		Log:        cfg.Log,
		State:      cfg.State,
		Indexer:    cfg.Indexer,
		Arbitrator: cfg.Arbitrator,
		Callbacks:  cfg.Callbacks,
		HTTPClient: cfg.HTTPClient,
		NS:         cfg.NS,
		Evts:       cfg.Evts,
	})

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes, the check routes
// and the metrics kept in the registry.
func DebugMux(build string, log *zap.SugaredLogger, registry *prometheus.Registry, idx *indexer.Indexer) http.Handler {
	mux := DebugStandardLibraryMux()

	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
		Questions: func() int {
			return len(idx.Questions())
		},
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return mux
}
