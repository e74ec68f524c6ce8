package wallet_test

import (
	"context"
	"errors"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/keystore"
	"github.com/google/uuid"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const receiver = "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"

func newStore(t *testing.T) *storage.Store {
	t.Helper()

	u, err := url.Parse("sqlitememory://" + uuid.NewString())
	if err != nil {
		t.Fatalf("Should be able to parse the store url: %s", err)
	}

	s, err := storage.Open(u, nil)
	if err != nil {
		t.Fatalf("Should be able to open the store: %s", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := storage.CreateSchema(context.Background(), s.DB(), s.Engine()); err != nil {
		t.Fatalf("Should be able to create the schema: %s", err)
	}

	return s
}

// fund creates unspent outputs owned by the wallet in the specified order.
func fund(t *testing.T, s *storage.Store, w *wallet.Wallet, values ...float64) {
	t.Helper()

	for i, v := range values {
		out := database.NewOutput(0, v, w.Address(), uuid.NewString())
		w.CreateOutScript(&out)

		if err := s.Add(context.Background(), &out, false); err != nil {
			t.Fatalf("Should be able to store output %d: %s", i, err)
		}
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// =============================================================================

func Test_New(t *testing.T) {
	t.Log("Given the need to create a wallet for a local key.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the key does not exist yet.", testID)
		{
			ks := keystore.New(t.TempDir(), "miner1")

			w, err := wallet.New(ks, newStore(t))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the wallet: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to create the wallet.", success, testID)

			addr, err := ks.Address()
			if err != nil || addr != w.Address() {
				t.Fatalf("\t%s\tTest %d:\tShould generate and use the key: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould generate and use the key.", success, testID)

			balance, err := w.Balance(context.Background())
			if err != nil || balance != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould start with a zero balance: %v %v", failed, testID, balance, err)
			}
			t.Logf("\t%s\tTest %d:\tShould start with a zero balance.", success, testID)
		}
	}
}

func Test_ConstructTx(t *testing.T) {
	t.Log("Given the need to build transfers from unspent outputs.")
	{
		ctx := context.Background()

		testID := 0
		t.Logf("\tTest %d:\tWhen sending 40 from outputs of 30 and 25.", testID)
		{
			s := newStore(t)
			w, err := wallet.New(keystore.New(t.TempDir(), "sender"), s)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the wallet: %v", failed, testID, err)
			}
			fund(t, s, w, 30, 25)

			tx, err := w.ConstructTx(ctx, w.Address(), receiver, 40)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the tx: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to construct the tx.", success, testID)

			if len(tx.Inputs) != 2 || tx.Inputs[0].Value != 30 || tx.Inputs[1].Value != 25 {
				t.Fatalf("\t%s\tTest %d:\tShould select both outputs in store order: %+v", failed, testID, tx.Inputs)
			}
			t.Logf("\t%s\tTest %d:\tShould select both outputs in store order.", success, testID)

			if len(tx.Outputs) != 2 || tx.Outputs[0].Value != 40 || tx.Outputs[0].Address != receiver {
				t.Fatalf("\t%s\tTest %d:\tShould pay the receiver 40: %+v", failed, testID, tx.Outputs)
			}
			t.Logf("\t%s\tTest %d:\tShould pay the receiver 40.", success, testID)

			if !near(tx.Outputs[1].Value, 14.6) || tx.Outputs[1].Address != w.Address() {
				t.Fatalf("\t%s\tTest %d:\tShould return 14.6 of change: %+v", failed, testID, tx.Outputs[1])
			}
			t.Logf("\t%s\tTest %d:\tShould return 14.6 of change.", success, testID)

			if !near(tx.Fees, 0.55) {
				t.Fatalf("\t%s\tTest %d:\tShould charge 0.55 of fees, got %v.", failed, testID, tx.Fees)
			}
			t.Logf("\t%s\tTest %d:\tShould charge 0.55 of fees.", success, testID)

			if !near(tx.TotalOutput()+40*database.FeeRate, tx.TotalInput()) {
				t.Fatalf("\t%s\tTest %d:\tShould account for every input.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould account for every input.", success, testID)

			if tx.Outputs[0].ID != 3 || tx.Outputs[1].ID != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould give the outputs distinct ids: %d %d", failed, testID, tx.Outputs[0].ID, tx.Outputs[1].ID)
			}
			t.Logf("\t%s\tTest %d:\tShould give the outputs distinct ids.", success, testID)

			if err := tx.Verify(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould produce a valid signed tx: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould produce a valid signed tx.", success, testID)

			if _, err := s.AcceptTransaction(ctx, tx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be accepted by the store: %v", failed, testID, err)
			}

			balance, err := w.Balance(ctx)
			if err != nil || !near(balance, 14.6) {
				t.Fatalf("\t%s\tTest %d:\tShould leave only the change, got %v %v.", failed, testID, balance, err)
			}
			t.Logf("\t%s\tTest %d:\tShould leave only the change.", success, testID)

			pending, err := w.PendingAmount(ctx, receiver)
			if err != nil || !near(pending.Received, 40) {
				t.Fatalf("\t%s\tTest %d:\tShould show 40 pending for the receiver, got %+v %v.", failed, testID, pending, err)
			}
			t.Logf("\t%s\tTest %d:\tShould show 40 pending for the receiver.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the selection stops as soon as it covers the amount.", testID)
		{
			s := newStore(t)
			w, err := wallet.New(keystore.New(t.TempDir(), "sender"), s)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the wallet: %v", failed, testID, err)
			}
			fund(t, s, w, 10, 20, 40)

			tx, err := w.ConstructTx(ctx, w.Address(), receiver, 25)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the tx: %v", failed, testID, err)
			}

			if len(tx.Inputs) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould select two outputs, got %d.", failed, testID, len(tx.Inputs))
			}
			t.Logf("\t%s\tTest %d:\tShould select two outputs.", success, testID)
		}
	}
}

func Test_ConstructTxRejected(t *testing.T) {
	type table struct {
		name     string
		receiver string
		amount   float64
		err      error
	}

	tt := []table{
		{name: "balance", receiver: receiver, amount: 60, err: wallet.ErrInsufficientFunds},
		{name: "fee", receiver: receiver, amount: 54.9, err: wallet.ErrInsufficientFunds},
		{name: "address", receiver: "0x1234", amount: 10, err: wallet.ErrInvalidAddress},
	}

	t.Log("Given the need to reject transfers that can't be made.")
	{
		ctx := context.Background()

		s := newStore(t)
		w, err := wallet.New(keystore.New(t.TempDir(), "sender"), s)
		if err != nil {
			t.Fatalf("Should be able to create the wallet: %v", err)
		}
		fund(t, s, w, 30, 25)

		for testID, tst := range tt {
			f := func(t *testing.T) {
				_, err := w.ConstructTx(ctx, w.Address(), tst.receiver, tst.amount)
				if !errors.Is(err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould fail with %v, got %v.", failed, testID, tst.err, err)
				}
				t.Logf("\t%s\tTest %d:\tShould fail with %v.", success, testID, tst.err)

				ids, err := s.GetIDList(ctx, database.KindUTXO)
				if err != nil || len(ids) != 2 {
					t.Fatalf("\t%s\tTest %d:\tShould not write to the store.", failed, testID)
				}

				pool, err := s.QueryUnconfirmed(ctx)
				if err != nil || len(pool) != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould not write to the store.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould not write to the store.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Coinbase(t *testing.T) {
	t.Log("Given the need to pay the mining reward.")
	{
		ctx := context.Background()

		testID := 0
		t.Logf("\tTest %d:\tWhen constructing a coinbase of 50.", testID)
		{
			w, err := wallet.New(keystore.New(t.TempDir(), "miner1"), newStore(t))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the wallet: %v", failed, testID, err)
			}

			tx, err := w.ConstructCoinbaseTx(ctx, 50)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the coinbase: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to construct the coinbase.", success, testID)

			if !tx.IsCoinbase() || len(tx.Inputs) != 0 || tx.Fees != 0 || tx.ID != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have no inputs and no fees: %+v", failed, testID, tx)
			}
			t.Logf("\t%s\tTest %d:\tShould have no inputs and no fees.", success, testID)

			if len(tx.Outputs) != 1 || tx.Outputs[0].Value != 50 || tx.Outputs[0].Address != w.Address() || tx.Outputs[0].TransactionID != tx.TransactionID {
				t.Fatalf("\t%s\tTest %d:\tShould pay 50 to the wallet: %+v", failed, testID, tx.Outputs)
			}
			t.Logf("\t%s\tTest %d:\tShould pay 50 to the wallet.", success, testID)

			ls, err := database.ParseLockingScript(tx.Outputs[0].LockingScript)
			if err != nil || ls.Value != 50 || ls.Address != w.Address() {
				t.Fatalf("\t%s\tTest %d:\tShould lock the output to the wallet: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould lock the output to the wallet.", success, testID)

			if err := tx.Verify(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be a valid coinbase: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be a valid coinbase.", success, testID)
		}
	}
}

func Test_SpendReceived(t *testing.T) {
	t.Log("Given the need to spend outputs received from another wallet.")
	{
		ctx := context.Background()

		s := newStore(t)
		a, err := wallet.New(keystore.New(t.TempDir(), "kennedy"), s)
		if err != nil {
			t.Fatalf("Should be able to create wallet a: %v", err)
		}
		b, err := wallet.New(keystore.New(t.TempDir(), "pavel"), s)
		if err != nil {
			t.Fatalf("Should be able to create wallet b: %v", err)
		}
		fund(t, s, a, 100)

		tx, err := a.ConstructTx(ctx, a.Address(), b.Address(), 40)
		if err != nil {
			t.Fatalf("Should be able to construct the tx from a to b: %v", err)
		}
		if _, err := s.AcceptTransaction(ctx, tx); err != nil {
			t.Fatalf("Should be able to accept the tx from a to b: %v", err)
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen the receiver spends what it was paid.", testID)
		{
			tx, err := b.ConstructTx(ctx, b.Address(), a.Address(), 10)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the tx: %v", failed, testID, err)
			}

			if _, err := s.AcceptTransaction(ctx, tx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be accepted by the store: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be accepted by the store.", success, testID)

			balA, err := a.Balance(ctx)
			if err != nil || !near(balA, 69.6) {
				t.Fatalf("\t%s\tTest %d:\tShould leave a with 69.6, got %v %v.", failed, testID, balA, err)
			}
			balB, err := b.Balance(ctx)
			if err != nil || !near(balB, 29.9) {
				t.Fatalf("\t%s\tTest %d:\tShould leave b with 29.9, got %v %v.", failed, testID, balB, err)
			}
			t.Logf("\t%s\tTest %d:\tShould move the value between both wallets.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a signs for an output owned by b.", testID)
		{
			utxos, err := s.GetUtxoList(ctx, b.Address())
			if err != nil || len(utxos) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould find the output of b: %v", failed, testID, err)
			}

			in, err := a.OutToIn(utxos[0])
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign the input: %v", failed, testID, err)
			}

			stolen := database.NewTransaction(0, database.TxTypeTransfer, time.Now())
			stolen.AddInput(in)
			stolen.ComputeTxID()

			out := database.NewOutput(0, 29, a.Address(), stolen.TransactionID)
			a.CreateOutScript(&out)
			stolen.AddOutput(out)
			stolen.CalculateFees()

			if _, err := s.AcceptTransaction(ctx, stolen); !errors.Is(err, signature.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the tx with an invalid signature, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the tx with an invalid signature.", success, testID)

			balB, err := b.Balance(ctx)
			if err != nil || !near(balB, 29.9) {
				t.Fatalf("\t%s\tTest %d:\tShould leave the balance of b untouched, got %v %v.", failed, testID, balB, err)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the balance of b untouched.", success, testID)
		}
	}
}
