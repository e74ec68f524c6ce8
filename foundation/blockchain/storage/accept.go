package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// AcceptTransaction moves a signed transfer into the unconfirmed pool. In one
// database transaction the new outputs are inserted with fresh ids, every
// spent output is deleted from the utxo table and the transaction is written
// to the unconfirmed table. An input whose output is missing or already
// spent fails the whole operation with ErrUTXONotFound and nothing is
// written. The transaction as stored is returned.
func (s *Store) AcceptTransaction(ctx context.Context, tx database.Transaction) (database.Transaction, error) {
	s.evHandler("storage: AcceptTransaction: started: tx[%s]", tx.TransactionID)
	defer s.evHandler("storage: AcceptTransaction: completed: tx[%s]", tx.TransactionID)

	if tx.IsCoinbase() {
		return database.Transaction{}, errors.New("coinbase transactions are only written by ConfirmBlock")
	}

	if err := tx.Verify(); err != nil {
		return database.Transaction{}, fmt.Errorf("verify tx[%s]: %w", tx.TransactionID, err)
	}

	// The caller's outputs must not see the ids assigned here.
	tx.Outputs = slices.Clone(tx.Outputs)

	err := s.withTx(ctx, func(dbTx *sql.Tx) error {
		// Outputs are written before the spent rows go away so their ids
		// never reuse the id of an output spent by this transaction.
		for i := range tx.Outputs {
			if err := add(ctx, dbTx, &tx.Outputs[i], false); err != nil {
				return err
			}
		}

		for _, in := range tx.Inputs {
			spent := database.Output{LockingScript: in.LockingScript}

			n, err := remove(ctx, dbTx, &spent)
			if err != nil {
				return err
			}
			if n != 1 {
				return fmt.Errorf("input prevTx[%s]: %w", in.PrevTxID, ErrUTXONotFound)
			}

			s.evHandler("storage: AcceptTransaction: spent: prevTx[%s] value[%v]", in.PrevTxID, in.Value)
		}

		tx.Confirmed = false
		return add(ctx, dbTx, &tx, false)
	})

	if err != nil {
		prometheusStoreErrors.WithLabelValues("AcceptTransaction").Inc()
		return database.Transaction{}, err
	}

	prometheusStoreAccept.Inc()

	return tx, nil
}

// ConfirmBlock writes a mined block and the state changes it carries in one
// database transaction. Each transfer is moved from the unconfirmed pool to
// the confirmed table keeping the id recorded in the block, coinbase
// transactions are inserted along with their outputs, and the block row is
// written last. The block must already be mined.
func (s *Store) ConfirmBlock(ctx context.Context, block database.Block) error {
	s.evHandler("storage: ConfirmBlock: started: blk[%d]", block.ID)
	defer s.evHandler("storage: ConfirmBlock: completed: blk[%d]", block.ID)

	if block.Hash == "" {
		return fmt.Errorf("block %d has not been mined", block.ID)
	}

	err := s.withTx(ctx, func(dbTx *sql.Tx) error {
		for _, tx := range block.Transactions {
			tx.Confirmed = true

			if tx.IsCoinbase() {
				for _, out := range tx.Outputs {

					// Output row ids are always assigned at insert time.
					if err := add(ctx, dbTx, &out, false); err != nil {
						return err
					}
				}
			} else {
				pending := database.Transaction{TransactionID: tx.TransactionID}

				n, err := remove(ctx, dbTx, &pending)
				if err != nil {
					return err
				}
				if n != 1 {
					return fmt.Errorf("unconfirmed tx[%s]: %w", tx.TransactionID, database.ErrNotFound)
				}
			}

			if err := add(ctx, dbTx, &tx, true); err != nil {
				return err
			}

			s.evHandler("storage: ConfirmBlock: tx[%s] confirmed", tx)
		}

		return add(ctx, dbTx, &block, true)
	})

	if err != nil {
		prometheusStoreErrors.WithLabelValues("ConfirmBlock").Inc()
		return err
	}

	prometheusStoreConfirm.Inc()

	return nil
}

// =============================================================================

// withTx runs fn inside a database transaction, committing when it returns
// nil and rolling back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(dbTx *sql.Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		_ = dbTx.Rollback()
	}()

	if err := fn(dbTx); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
