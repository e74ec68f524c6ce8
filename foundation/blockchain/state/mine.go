package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/selector"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in unconfirmed pool")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: check unconfirmed count")

	pool, err := s.store.QueryUnconfirmed(ctx)
	if err != nil {
		return database.Block{}, err
	}

	// Are there enough transactions in the pool.
	if len(pool) == 0 && !s.mineEmptyBlocks {
		return database.Block{}, ErrNoTransactions
	}

	trans := selector.Select(s.selectFn, pool, int(s.genesis.TransPerBlock))
	if len(trans) == 0 && !s.mineEmptyBlocks {
		return database.Block{}, ErrNoTransactions
	}

	// Confirmed ids are fixed now since they are part of the block hash.
	lastTx, err := s.store.LastID(ctx, database.KindTransaction)
	if err != nil {
		return database.Block{}, err
	}
	for i := range trans {
		trans[i].ID = lastTx + uint64(i) + 1
	}

	latest, err := s.store.QueryLatestBlock(ctx)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return database.Block{}, err
	}

	prevHash := signature.ZeroHash
	if latest.ID > 0 {
		prevHash = latest.Hash
	}

	block := database.NewBlock(latest.ID+1, trans, time.Now(), prevHash, uint(s.genesis.Difficulty))
	block.FinalReward()

	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d] txs[%d] fees[%v]", block.ID, len(trans), block.Reward)

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	t := time.Now()
	miner := coinbaseMiner{wallet: s.wallet, txID: lastTx + uint64(len(trans)) + 1}
	if err := block.Mine(ctx, miner, s.genesis.MiningReward, s.workers, s.evHandler); err != nil {
		return database.Block{}, err
	}
	prometheusMiningDuration.Observe(time.Since(t).Seconds())

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.store.ConfirmBlock(ctx, block); err != nil {
		return database.Block{}, fmt.Errorf("confirm blk[%d]: %w", block.ID, err)
	}

	prometheusBlocksMined.Inc()
	prometheusChainHeight.Set(float64(block.ID))

	return block, nil
}

// =============================================================================

// coinbaseMiner pays the mining reward with the confirmed transaction id
// reserved for the coinbase of the block being mined.
type coinbaseMiner struct {
	wallet *wallet.Wallet
	txID   uint64
}

// ConstructCoinbaseTx implements the database.Miner interface.
func (m coinbaseMiner) ConstructCoinbaseTx(ctx context.Context, amount float64) (database.Transaction, error) {
	tx, err := m.wallet.ConstructCoinbaseTx(ctx, amount)
	if err != nil {
		return database.Transaction{}, err
	}

	tx.ID = m.txID

	return tx, nil
}
