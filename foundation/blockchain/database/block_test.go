package database_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const minerAddress = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"

// miner pays the coinbase reward without touching any storage.
type miner struct {
	address string
}

func (m miner) ConstructCoinbaseTx(ctx context.Context, amount float64) (database.Transaction, error) {
	tx := database.NewTransaction(1, database.TxTypeCoinbase, time.Unix(0, 1_700_000_000_000_000_000))
	tx.ComputeTxID()
	tx.AddOutput(database.NewOutput(1, amount, m.address, tx.TransactionID))
	tx.CalculateFees()

	return tx, nil
}

func newBlock(difficulty uint) database.Block {
	tx := database.NewTransaction(7, database.TxTypeTransfer, time.Unix(0, 1_600_000_000_000_000_000))
	tx.AddInput(database.Input{Value: 30, Address: minerAddress, PrevTxID: "aa"})
	tx.ComputeTxID()
	tx.CalculateFees()

	return database.NewBlock(1, []database.Transaction{tx}, time.Unix(0, 1_650_000_000_000_000_000), signature.ZeroHash, difficulty)
}

// =============================================================================

func Test_BlockHash(t *testing.T) {
	t.Log("Given the need to hash blocks deterministically.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling two blocks with identical fields.", testID)
		{
			b1 := newBlock(2)
			b2 := newBlock(2)

			h1 := b1.ComputeHash()
			if h1 != b2.ComputeHash() {
				t.Fatalf("\t%s\tTest %d:\tShould get the same hash for identical blocks.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same hash for identical blocks.", success, testID)

			if len(h1) != 64 {
				t.Fatalf("\t%s\tTest %d:\tShould get a 64 character hex digest, got %d.", failed, testID, len(h1))
			}
			t.Logf("\t%s\tTest %d:\tShould get a 64 character hex digest.", success, testID)

			b1.Hash = "something else"
			if h1 != b1.ComputeHash() {
				t.Fatalf("\t%s\tTest %d:\tShould not include the hash field in the hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not include the hash field in the hash.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen changing a single field.", testID)
		{
			base := newBlock(2).ComputeHash()

			mutations := map[string]func(b *database.Block){
				"id":         func(b *database.Block) { b.ID++ },
				"timestamp":  func(b *database.Block) { b.TimeStamp++ },
				"prevHash":   func(b *database.Block) { b.PrevHash = strings.Repeat("1", 64) },
				"reward":     func(b *database.Block) { b.Reward += 0.5 },
				"nonce":      func(b *database.Block) { b.Nonce++ },
				"difficulty": func(b *database.Block) { b.Difficulty++ },
				"trans":      func(b *database.Block) { b.Transactions[0].Fees = 99 },
			}

			for name, mutate := range mutations {
				b := newBlock(2)
				mutate(&b)
				if b.ComputeHash() == base {
					t.Errorf("\t%s\tTest %d:\tShould change the hash when %s changes.", failed, testID, name)
					continue
				}
				t.Logf("\t%s\tTest %d:\tShould change the hash when %s changes.", success, testID, name)
			}
		}
	}
}

func Test_Mine(t *testing.T) {
	t.Log("Given the need to mine blocks to a difficulty.")
	{
		for difficulty := uint(0); difficulty <= 4; difficulty++ {
			testID := int(difficulty)
			t.Logf("\tTest %d:\tWhen mining with difficulty %d.", testID, difficulty)
			{
				b := newBlock(difficulty)
				b.FinalReward()

				if err := b.Mine(context.Background(), miner{address: minerAddress}, 50, 1, nil); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

				if !strings.HasPrefix(b.Hash, strings.Repeat("0", int(difficulty))) {
					t.Fatalf("\t%s\tTest %d:\tShould have %d leading zeros: %s", failed, testID, difficulty, b.Hash)
				}
				t.Logf("\t%s\tTest %d:\tShould have %d leading zeros.", success, testID, difficulty)

				if b.Hash != b.ComputeHash() {
					t.Fatalf("\t%s\tTest %d:\tShould have a hash matching the block fields.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould have a hash matching the block fields.", success, testID)

				last := b.Transactions[len(b.Transactions)-1]
				if !last.IsCoinbase() || last.Outputs[0].Value != 50 || last.Outputs[0].Address != minerAddress {
					t.Fatalf("\t%s\tTest %d:\tShould append the coinbase reward: %+v", failed, testID, last)
				}
				t.Logf("\t%s\tTest %d:\tShould append the coinbase reward.", success, testID)

				if err := b.ValidateBlock(database.Block{}, nil); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould validate as the first block: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould validate as the first block.", success, testID)
			}
		}
	}
}

func Test_MineParallel(t *testing.T) {
	t.Log("Given the need to mine blocks across several workers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining with 4 workers.", testID)
		{
			b := newBlock(3)
			if err := b.Mine(context.Background(), miner{address: minerAddress}, 50, 4, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

			if !strings.HasPrefix(b.Hash, "000") || b.Hash != b.ComputeHash() {
				t.Fatalf("\t%s\tTest %d:\tShould produce a valid solution: %s", failed, testID, b.Hash)
			}
			t.Logf("\t%s\tTest %d:\tShould produce a valid solution.", success, testID)
		}
	}
}

func Test_MineCancel(t *testing.T) {
	t.Log("Given the need to stop a mining operation.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the deadline passes before a solution is found.", testID)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			b := newBlock(64)
			err := b.Mine(ctx, miner{address: minerAddress}, 50, 2, nil)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("\t%s\tTest %d:\tShould get a deadline error, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a deadline error.", success, testID)

			if b.Hash != "" {
				t.Fatalf("\t%s\tTest %d:\tShould not set a hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not set a hash.", success, testID)
		}
	}
}

func Test_FinalReward(t *testing.T) {
	t.Log("Given the need to collect transaction fees into the block reward.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block holds a transfer and a coinbase.", testID)
		{
			b := newBlock(0)
			if err := b.Mine(context.Background(), miner{address: minerAddress}, 50, 1, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}

			if got := b.FinalReward(); math.Abs(got-0.3) > 1e-9 {
				t.Fatalf("\t%s\tTest %d:\tShould sum the fees: got %v, exp 0.3.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould sum the fees.", success, testID)
		}
	}
}

func Test_ValidateBlock(t *testing.T) {
	t.Log("Given the need to validate the chain links.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block does not follow its parent.", testID)
		{
			first := newBlock(1)
			if err := first.Mine(context.Background(), miner{address: minerAddress}, 50, 1, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}

			second := database.NewBlock(2, nil, time.Unix(0, int64(first.TimeStamp)+1), first.Hash, 1)
			if err := second.Mine(context.Background(), miner{address: minerAddress}, 50, 1, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}

			if err := second.ValidateBlock(first, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould validate the next block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate the next block.", success, testID)

			tampered := second
			tampered.Reward = 1000
			if err := tampered.ValidateBlock(first, nil); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a block whose fields changed after mining.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a block whose fields changed after mining.", success, testID)

			orphan := second
			orphan.PrevHash = signature.ZeroHash
			orphan.Hash = ""
			if err := orphan.ValidateBlock(first, nil); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a block not linked to its parent.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a block not linked to its parent.", success, testID)
		}
	}
}
