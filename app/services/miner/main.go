package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxoledger/app/services/miner/handlers"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/worker"
	"github.com/ardanlabs/utxoledger/foundation/keystore"
	"github.com/ardanlabs/utxoledger/foundation/logger"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("MINER")
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
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
		}
		State struct {
			MinerName       string        `conf:"default:miner1"`
			StoreURL        string        `conf:"default:sqlite://zblock/ledger.db,mask"`
			GenesisPath     string        `conf:"default:zblock/genesis.json"`
			SelectStrategy  string        `conf:"help:overrides the genesis selector rule"`
			Workers         int           `conf:"default:4"`
			MineEmptyBlocks bool          `conf:"default:true"`
			MiningInterval  time.Duration `conf:"default:10s"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "MINER"
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

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the file names in the zblock/accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Ledger Support

	// The core packages accept a function of this signature to allow the
	// application to log. Every message of this run carries the same trace id.
	traceID := uuid.NewString()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", traceID)
	}

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis: %w", err)
	}

	storeURL, err := url.Parse(cfg.State.StoreURL)
	if err != nil {
		return fmt.Errorf("parsing store url: %w", err)
	}

	store, err := storage.Open(storeURL, ev)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		log.Infow("shutdown", "status", "closing store")
		store.Close()
	}()

	// Creating the tables is an administrative step kept out of the store.
	if err := storage.CreateSchema(context.Background(), store.DB(), store.Engine()); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	// The miner key is generated on first start so the account can get
	// credited with the mining rewards.
	ks := keystore.New(cfg.NameService.Folder, cfg.State.MinerName)
	wal, err := wallet.New(ks, store)
	if err != nil {
		return fmt.Errorf("unable to load wallet for miner: %w", err)
	}
	log.Infow("startup", "status", "wallet", "name", ks.Name(), "account", wal.Address())

	// The state value represents the ledger and manages the blockchain
	// database and provides an API for application support.
	st, err := state.New(state.Config{
		Store:           store,
		Wallet:          wal,
		Genesis:         gen,
		SelectStrategy:  cfg.State.SelectStrategy,
		Workers:         cfg.State.Workers,
		MineEmptyBlocks: cfg.State.MineEmptyBlocks,
		EvHandler:       ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// Check the chain on disk before adding to it.
	if err := st.VerifyChain(context.Background()); err != nil {
		return fmt.Errorf("verifying chain: %w", err)
	}

	// The worker package implements the mining workflow. The worker will
	// register itself with the state.
	worker.Run(st, cfg.State.MiningInterval, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.
	debug := http.Server{
		Addr:     cfg.Web.DebugHost,
		Handler:  handlers.DebugMux(build, log, store),
		ErrorLog: zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- debug.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := debug.Shutdown(ctx); err != nil {
			debug.Close()
			return fmt.Errorf("could not stop debug service gracefully: %w", err)
		}
	}

	return nil
}
