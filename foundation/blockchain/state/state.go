// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/selector"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
)

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler = database.EventHandler

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start
// the ledger.
type Config struct {
	Store           *storage.Store
	Wallet          *wallet.Wallet
	Genesis         genesis.Genesis
	SelectStrategy  string
	Workers         int
	MineEmptyBlocks bool
	EvHandler       EventHandler
}

// State manages the ledger.
type State struct {
	mu sync.Mutex

	store           *storage.Store
	wallet          *wallet.Wallet
	genesis         genesis.Genesis
	selectFn        selector.Func
	workers         int
	mineEmptyBlocks bool
	evHandler       EventHandler

	Worker Worker
}

// New constructs a new ledger state for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Store == nil || cfg.Wallet == nil {
		return nil, errors.New("store and wallet are required")
	}

	// The genesis rule is used unless the configuration overrides it.
	strategy := cfg.Genesis.SelectorRule
	if cfg.SelectStrategy != "" {
		strategy = cfg.SelectStrategy
	}

	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	state := State{
		store:           cfg.Store,
		wallet:          cfg.Wallet,
		genesis:         cfg.Genesis,
		selectFn:        selectFn,
		workers:         workers,
		mineEmptyBlocks: cfg.MineEmptyBlocks,
		evHandler:       ev,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the ledger.

	return &state, nil
}

// Shutdown cleanly brings the ledger down. The store is owned by the caller
// and is not closed here.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all ledger writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Address returns the address of the wallet collecting mining rewards.
func (s *State) Address() string {
	return s.wallet.Address()
}

// MineEmptyBlocks reports whether blocks are mined without transactions.
func (s *State) MineEmptyBlocks() bool {
	return s.mineEmptyBlocks
}
