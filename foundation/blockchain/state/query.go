package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage"
)

// QueryBalance returns the value of the unspent outputs owned by the address.
func (s *State) QueryBalance(ctx context.Context, address string) (float64, error) {
	return s.wallet.BalanceOf(ctx, address)
}

// QueryUTXOs returns the unspent outputs owned by the address.
func (s *State) QueryUTXOs(ctx context.Context, address string) ([]database.Output, error) {
	return s.store.GetUtxoList(ctx, address)
}

// QueryPending returns what the unconfirmed pool spends from and pays to
// the address.
func (s *State) QueryPending(ctx context.Context, address string) (storage.Pending, error) {
	return s.wallet.PendingAmount(ctx, address)
}

// QueryUnconfirmed returns the transactions waiting to be mined.
func (s *State) QueryUnconfirmed(ctx context.Context) ([]database.Transaction, error) {
	return s.store.QueryUnconfirmed(ctx)
}

// QueryUnconfirmedLength returns the number of transactions waiting to be mined.
func (s *State) QueryUnconfirmedLength(ctx context.Context) (int, error) {
	ids, err := s.store.GetIDList(ctx, database.KindUnconfirmed)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// QueryLatestBlock returns the block at the tip of the chain. A zero block
// is returned when nothing has been mined yet.
func (s *State) QueryLatestBlock(ctx context.Context) (database.Block, error) {
	block, err := s.store.QueryLatestBlock(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return database.Block{}, nil
	}
	return block, err
}

// QueryBlocks returns the full chain in block order.
func (s *State) QueryBlocks(ctx context.Context) ([]database.Block, error) {
	return s.store.QueryBlocks(ctx)
}

// QueryTransaction returns the transaction with the transaction id, confirmed
// or not.
func (s *State) QueryTransaction(ctx context.Context, txID string) (database.Transaction, error) {
	return s.store.GetTxByTxID(ctx, txID)
}

// Search returns the block when param is a block id and the transaction
// with that transaction id otherwise.
func (s *State) Search(ctx context.Context, param string) (database.Entity, error) {
	return s.store.Search(ctx, param)
}

// =============================================================================

// VerifyChain walks the chain from the first block validating the links,
// the proof of work and the signatures of every transfer.
func (s *State) VerifyChain(ctx context.Context) error {
	s.evHandler("state: VerifyChain: started")
	defer s.evHandler("state: VerifyChain: completed")

	blocks, err := s.store.QueryBlocks(ctx)
	if err != nil {
		return err
	}

	var previous database.Block
	for _, block := range blocks {
		if err := block.ValidateBlock(previous, s.evHandler); err != nil {
			return fmt.Errorf("blk[%d]: %w", block.ID, err)
		}

		var coinbase int
		for _, tx := range block.Transactions {
			if tx.IsCoinbase() {
				coinbase++
				continue
			}
			if err := tx.Verify(); err != nil {
				return fmt.Errorf("blk[%d]: tx[%s]: %w", block.ID, tx.TransactionID, err)
			}
		}

		if coinbase != 1 {
			return fmt.Errorf("blk[%d]: expected one coinbase, got %d", block.ID, coinbase)
		}

		previous = block
	}

	return nil
}
