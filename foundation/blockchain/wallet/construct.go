package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// ConstructTx builds a signed transfer of amount from sender to receiver.
// Outputs of the sender are selected in store order until they cover the
// amount plus the fee. The receiver is paid the amount and the rest of the
// selection, less the fee, is returned to the sender as change. Nothing is
// written to the store.
func (w *Wallet) ConstructTx(ctx context.Context, sender string, receiver string, amount float64) (database.Transaction, error) {
	if amount <= 0 {
		return database.Transaction{}, fmt.Errorf("amount %v must be positive", amount)
	}

	utxos, err := w.store.GetUtxoList(ctx, sender)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("construct tx: %w", err)
	}

	var balance float64
	for _, out := range utxos {
		balance += out.Value
	}

	if balance < amount {
		return database.Transaction{}, fmt.Errorf("balance %v, amount %v: %w", balance, amount, ErrInsufficientFunds)
	}

	if len(sender) != len(receiver) {
		return database.Transaction{}, fmt.Errorf("sender %q, receiver %q: %w", sender, receiver, ErrInvalidAddress)
	}

	if sender != w.address {
		return database.Transaction{}, fmt.Errorf("sender %q is not the wallet address: %w", sender, ErrInvalidAddress)
	}

	// Select outputs until the amount and its fee are covered.
	target := amount * (1 + database.FeeRate)

	var selected []database.Output
	var sum float64
	for _, out := range utxos {
		if sum >= target {
			break
		}
		selected = append(selected, out)
		sum += out.Value
	}

	if sum < target {
		return database.Transaction{}, fmt.Errorf("selected %v, need %v: %w", sum, target, ErrInsufficientFunds)
	}

	tx := database.NewTransaction(0, database.TxTypeTransfer, time.Now())
	for _, out := range selected {
		in, err := w.OutToIn(out)
		if err != nil {
			return database.Transaction{}, err
		}
		tx.AddInput(in)
	}
	tx.ComputeTxID()

	lastUTXO, err := w.store.LastID(ctx, database.KindUTXO)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("construct tx: %w", err)
	}

	paid := database.NewOutput(lastUTXO+1, amount, receiver, tx.TransactionID)
	w.CreateOutScript(&paid)
	tx.AddOutput(paid)

	change := database.NewOutput(lastUTXO+2, sum-target, sender, tx.TransactionID)
	w.CreateOutScript(&change)
	tx.AddOutput(change)

	tx.CalculateFees()

	return tx, nil
}

// ConstructCoinbaseTx builds the transaction paying the mining reward to the
// wallet. It implements database.Miner.
func (w *Wallet) ConstructCoinbaseTx(ctx context.Context, amount float64) (database.Transaction, error) {
	return w.ConstructCoinbaseTxTo(ctx, amount, w.address)
}

// ConstructCoinbaseTxTo builds a transaction with no inputs and a single
// output paying amount to the address.
func (w *Wallet) ConstructCoinbaseTxTo(ctx context.Context, amount float64, address string) (database.Transaction, error) {
	lastTx, err := w.store.LastID(ctx, database.KindTransaction)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("construct coinbase: %w", err)
	}

	lastUTXO, err := w.store.LastID(ctx, database.KindUTXO)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("construct coinbase: %w", err)
	}

	tx := database.NewTransaction(lastTx+1, database.TxTypeCoinbase, time.Now())
	tx.ComputeTxID()

	out := database.NewOutput(lastUTXO+1, amount, address, tx.TransactionID)
	w.CreateOutScript(&out)
	tx.AddOutput(out)

	tx.CalculateFees()

	return tx, nil
}
