package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// SubmitTransaction accepts a signed transfer into the unconfirmed pool and
// signals the worker to start mining.
func (s *State) SubmitTransaction(ctx context.Context, tx database.Transaction) (database.Transaction, error) {
	s.evHandler("state: SubmitTransaction: started: tx[%s]", tx.TransactionID)
	defer s.evHandler("state: SubmitTransaction: completed")

	stored, err := s.store.AcceptTransaction(ctx, tx)
	if err != nil {
		return database.Transaction{}, err
	}

	prometheusTxSubmitted.Inc()

	if s.Worker != nil {
		s.evHandler("state: SubmitTransaction: signal mining")
		s.Worker.SignalStartMining()
	}

	return stored, nil
}

// Send builds a transfer of amount from the local wallet to the receiver
// and submits it.
func (s *State) Send(ctx context.Context, receiver string, amount float64) (database.Transaction, error) {
	tx, err := s.wallet.ConstructTx(ctx, s.wallet.Address(), receiver, amount)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("construct: %w", err)
	}

	return s.SubmitTransaction(ctx, tx)
}
