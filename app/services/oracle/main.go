package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alex-kampa/realitycheck/app/services/oracle/handlers"
	"github.com/alex-kampa/realitycheck/foundation/events"
	"github.com/alex-kampa/realitycheck/foundation/logger"
	"github.com/alex-kampa/realitycheck/foundation/nameservice"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/arbitrator"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/balance"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/callback"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer/pebble"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ORACLE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
		}
		State struct {
			RevealDivisor uint64 `conf:"default:8"`
			IndexerPath   string `conf:"default:zblock/history"`
			ResetIndexer  bool   `conf:"default:true"`
		}
		Arbitrator struct {
			KeyName string `conf:"default:arbitrator"`
			Fee     uint64 `conf:"default:100"`
		}
		Callback struct {
			MaxBudget     time.Duration `conf:"default:5s"`
			ClientTimeout time.Duration `conf:"default:10s"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "reality check oracle",
		},
	}

	const prefix = "ORACLE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The names come from the file names in the accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Oracle Support

	// The oracle packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// Questions only live in memory, so history left behind by an earlier run
	// can't be continued.
	if cfg.State.ResetIndexer {
		if err := os.RemoveAll(cfg.State.IndexerPath); err != nil {
			return fmt.Errorf("resetting indexer: %w", err)
		}
	}

	store, err := pebble.Open(cfg.State.IndexerPath)
	if err != nil {
		return fmt.Errorf("opening indexer: %w", err)
	}

	idx, err := indexer.New(store, ev)
	if err != nil {
		store.Close()
		return fmt.Errorf("loading indexer: %w", err)
	}
	defer idx.Close()

	ledger := balance.NewSheet(nil)

	st := state.New(state.Config{
		RevealDivisor: cfg.State.RevealDivisor,
		Ledger:        ledger,
		Recorder:      idx,
		EvHandler:     ev,
	})

	// The node runs one arbitrator. Its key both identifies it on questions
	// and signs its answers.
	path := fmt.Sprintf("%s%s.ecdsa", cfg.NameService.Folder, cfg.Arbitrator.KeyName)
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return fmt.Errorf("unable to load private key for arbitrator: %w", err)
	}
	arbAccount := crypto.PubkeyToAddress(privateKey.PublicKey)

	arb := arbitrator.New(arbitrator.Config{
		Address:   arbAccount,
		Owner:     arbAccount,
		Fee:       cfg.Arbitrator.Fee,
		EvHandler: ev,
	})
	st.RegisterArbitrator(arb)

	log.Infow("startup", "status", "arbitrator", "account", arbAccount, "name", ns.Lookup(arbAccount), "fee", cfg.Arbitrator.Fee)

	callbacks := callback.New(callback.Config{
		Oracle:    st,
		Ledger:    ledger,
		MaxBudget: cfg.Callback.MaxBudget,
		EvHandler: ev,
	})

	// =========================================================================
	// Metrics Support

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "oracle",
			Name:      "events_dropped_total",
			Help:      "Events a websocket client had no room for.",
		}, func() float64 { return float64(evts.Dropped()) }),
	)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, registry, idx)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	apiMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		Registry:   registry,
		State:      st,
		Indexer:    idx,
		Arbitrator: arb,
		Callbacks:  callbacks,
		HTTPClient: &http.Client{Timeout: cfg.Callback.ClientTimeout},
		NS:         ns,
		Evts:       evts,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		log.Infow("shutdown", "status", "shutdown API started")
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop api service gracefully: %w", err)
		}
	}

	return nil
}
