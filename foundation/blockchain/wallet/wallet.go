// Package wallet builds and signs transactions for the local wallet identity.
// Balances are always read through from the store, nothing is cached.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage"
)

// Set of errors returned by the wallet.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAddress    = errors.New("invalid address")
)

// KeyProvider represents the behavior required to access the wallet key.
// Address must return an error wrapping fs.ErrNotExist when no key exists.
type KeyProvider interface {
	Address() (string, error)
	Generate() error
	PrivateKey() (*ecdsa.PrivateKey, error)
}

// Store represents the ledger queries the wallet depends on.
type Store interface {
	GetUtxoList(ctx context.Context, address string) ([]database.Output, error)
	LastID(ctx context.Context, kind database.Kind) (uint64, error)
	PendingAmount(ctx context.Context, address string) (storage.Pending, error)
}

// =============================================================================

// Wallet represents the local identity that owns outputs on the ledger.
type Wallet struct {
	address    string
	privateKey *ecdsa.PrivateKey
	store      Store
}

// New constructs a wallet for the key. When the key does not exist yet it is
// generated and read again.
func New(keys KeyProvider, store Store) (*Wallet, error) {
	address, err := keys.Address()
	if errors.Is(err, fs.ErrNotExist) {
		if err := keys.Generate(); err != nil {
			return nil, fmt.Errorf("generating key: %w", err)
		}
		address, err = keys.Address()
	}
	if err != nil {
		return nil, fmt.Errorf("reading address: %w", err)
	}

	privateKey, err := keys.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	w := Wallet{
		address:    address,
		privateKey: privateKey,
		store:      store,
	}

	return &w, nil
}

// Address returns the address of the wallet.
func (w *Wallet) Address() string {
	return w.address
}

// PublicKey returns the serialized public key of the wallet.
func (w *Wallet) PublicKey() []byte {
	return signature.PublicKeyBytes(w.privateKey.PublicKey)
}

// Balance sums every unspent output owned by the wallet.
func (w *Wallet) Balance(ctx context.Context) (float64, error) {
	return w.BalanceOf(ctx, w.address)
}

// BalanceOf sums every unspent output owned by the address.
func (w *Wallet) BalanceOf(ctx context.Context, address string) (float64, error) {
	utxos, err := w.store.GetUtxoList(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", address, err)
	}

	var balance float64
	for _, out := range utxos {
		balance += out.Value
	}

	return balance, nil
}

// PendingAmount returns what the unconfirmed pool spends from and pays to
// the address.
func (w *Wallet) PendingAmount(ctx context.Context, address string) (storage.Pending, error) {
	return w.store.PendingAmount(ctx, address)
}

// Sign signs the data with the wallet private key.
func (w *Wallet) Sign(data []byte) ([]byte, error) {
	return signature.Sign(data, w.privateKey)
}

// CreateOutScript locks the output to the wallet public key. The script
// records the value, recipient and transaction of the output along with the
// current time.
func (w *Wallet) CreateOutScript(out *database.Output) {
	out.LockingScript = database.NewLockingScript(w.PublicKey(), out.Value, out.Address, out.TransactionID, time.Now())
}

// OutToIn converts an unspent output into an input spending it, signed over
// the output locking script.
func (w *Wallet) OutToIn(out database.Output) (database.Input, error) {
	sig, err := w.Sign(out.LockingScript)
	if err != nil {
		return database.Input{}, fmt.Errorf("signing output %d: %w", out.ID, err)
	}

	in := database.Input{
		Value:         out.Value,
		Address:       out.Address,
		PrevTxID:      out.TransactionID,
		LockingScript: out.LockingScript,
		ScriptSig:     sig,
	}

	return in, nil
}
