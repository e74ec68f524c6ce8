package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"golang.org/x/sync/errgroup"
)

// Miner represents the behavior required to pay the mining reward of a
// block to the wallet performing the work.
type Miner interface {
	ConstructCoinbaseTx(ctx context.Context, amount float64) (Transaction, error)
}

// =============================================================================

// Block represents a group of transactions batched together and chained to
// the previous block by hash.
type Block struct {
	ID           uint64        `json:"id"`            // Position of the block in the chain, starting at 1.
	Transactions []Transaction `json:"transactions"`  // Transactions mined into this block, coinbase last.
	TimeStamp    uint64        `json:"timestamp"`     // Unix time in nanoseconds the block was created.
	PrevHash     string        `json:"previous_hash"` // Hash of the previous block in the chain.
	Hash         string        `json:"hash"`          // Hash of every other field once mined.
	Reward       float64       `json:"reward"`        // Fees accumulated from the transactions.
	Nonce        uint64        `json:"nonce"`         // Value identified to solve the hash solution.
	Difficulty   uint          `json:"difficulty"`    // Number of leading 0's needed in the hash.
}

// NewBlock constructs an unmined block. The nonce starts at zero and the
// reward accumulator is empty until FinalReward is called.
func NewBlock(id uint64, trans []Transaction, timestamp time.Time, prevHash string, difficulty uint) Block {
	txs := make([]Transaction, len(trans))
	for i, tx := range trans {
		tx.Confirmed = true
		txs[i] = tx
	}

	return Block{
		ID:           id,
		Transactions: txs,
		TimeStamp:    uint64(timestamp.UnixNano()),
		PrevHash:     prevHash,
		Difficulty:   difficulty,
	}
}

// hashable is the preimage of the block hash: every field except the hash.
type hashable struct {
	ID           uint64        `json:"id"`
	Transactions []Transaction `json:"transactions"`
	TimeStamp    uint64        `json:"timestamp"`
	PrevHash     string        `json:"previous_hash"`
	Reward       float64       `json:"reward"`
	Nonce        uint64        `json:"nonce"`
	Difficulty   uint          `json:"difficulty"`
}

// ComputeHash returns the hash of every field of the block except the hash
// itself. Identical field values always produce the identical hash.
func (b Block) ComputeHash() string {
	return signature.Hash(hashable{
		ID:           b.ID,
		Transactions: b.Transactions,
		TimeStamp:    b.TimeStamp,
		PrevHash:     b.PrevHash,
		Reward:       b.Reward,
		Nonce:        b.Nonce,
		Difficulty:   b.Difficulty,
	})
}

// FinalReward adds the fees of every transaction to the block reward. Call
// it before Mine so the accepted hash covers the final reward.
func (b *Block) FinalReward() float64 {
	for _, tx := range b.Transactions {
		b.Reward += tx.Fees
	}
	return b.Reward
}

// Mine appends the coinbase transaction paying the reward to the miner and
// then searches for a nonce that solves the POW puzzle. The search is spread
// over the specified number of workers and stops when ctx is cancelled.
func (b *Block) Mine(ctx context.Context, miner Miner, reward float64, workers int, ev EventHandler) error {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	coinbase, err := miner.ConstructCoinbaseTx(ctx, reward)
	if err != nil {
		return fmt.Errorf("constructing coinbase: %w", err)
	}
	coinbase.Confirmed = true
	b.Transactions = append(b.Transactions, coinbase)

	return b.performPOW(ctx, workers, ev)
}

// performPOW does the work of mining to find a valid hash for the block.
// Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, workers int, ev EventHandler) error {
	ev("database: performPOW: MINING: started: blk[%d] difficulty[%d] workers[%d]", b.ID, b.Difficulty, workers)
	defer ev("database: performPOW: MINING: completed: blk[%d]", b.ID)

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Transactions {
		ev("database: performPOW: MINING: tx[%s]", tx)
	}

	if workers < 1 {
		workers = 1
	}

	// Once any worker solves the puzzle the others are told to stop.
	powCtx, solved := context.WithCancel(ctx)
	defer solved()

	var once sync.Once
	var solution Block

	g, gctx := errgroup.WithContext(powCtx)
	for w := range workers {
		nb := *b
		nb.Nonce = b.Nonce + uint64(w)

		g.Go(func() error {
			var attempts uint64
			for {
				attempts++
				if attempts%1_000_000 == 0 {
					ev("database: performPOW: MINING: worker[%d] attempts[%d]", w, attempts)
				}

				if gctx.Err() != nil {
					return nil
				}

				hash := nb.ComputeHash()
				if !isHashSolved(nb.Difficulty, hash) {
					nb.Nonce += uint64(workers)
					continue
				}

				once.Do(func() {
					nb.Hash = hash
					solution = nb
					solved()
				})

				ev("database: performPOW: MINING: worker[%d] attempts[%d]", w, attempts)
				return nil
			}
		})
	}
	g.Wait()

	// Did we get cancelled before anyone found a solution.
	if solution.Hash == "" {
		ev("database: performPOW: MINING: CANCELLED")
		return ctx.Err()
	}

	ev("database: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.PrevHash, solution.Hash)

	b.Nonce = solution.Nonce
	b.Hash = solution.Hash

	return nil
}

// ValidateBlock takes a block and validates it to be the next block after
// the specified previous block. A zero previous block means this is the
// first block in the chain.
func (b Block) ValidateBlock(previous Block, ev EventHandler) error {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.ID)

	if !isHashSolved(b.Difficulty, b.Hash) {
		return fmt.Errorf("%s invalid block hash", b.Hash)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block hash matches block fields", b.ID)

	if hash := b.ComputeHash(); hash != b.Hash {
		return fmt.Errorf("block hash doesn't match block fields, got %s, exp %s", b.Hash, hash)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.ID)

	if b.ID != previous.ID+1 {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.ID, previous.ID+1)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.ID)

	prevHash := signature.ZeroHash
	if previous.ID > 0 {
		prevHash = previous.Hash
	}

	if b.PrevHash != prevHash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.PrevHash, prevHash)
	}

	if previous.TimeStamp > 0 {
		ev("database: ValidateBlock: validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", b.ID)

		parentTime := time.Unix(0, int64(previous.TimeStamp))
		blockTime := time.Unix(0, int64(b.TimeStamp))
		if blockTime.Before(parentTime) {
			return fmt.Errorf("block timestamp is before parent block, parent %s, block %s", parentTime, blockTime)
		}
	}

	return nil
}

// Kind implements the Entity interface.
func (b *Block) Kind() Kind {
	return KindBlock
}

// RowID implements the Entity interface.
func (b *Block) RowID() uint64 {
	return b.ID
}

// SetRowID implements the Entity interface.
func (b *Block) SetRowID(id uint64) {
	b.ID = id
}

// Snapshot implements the Entity interface.
func (b *Block) Snapshot() (Row, error) {
	trans, err := encodeList(b.Transactions)
	if err != nil {
		return nil, fmt.Errorf("block %d: transactions: %w", b.ID, err)
	}

	row := Row{
		int64(b.ID),
		trans,
		int64(b.TimeStamp),
		b.PrevHash,
		b.Hash,
		b.Reward,
		int64(b.Nonce),
		int64(b.Difficulty),
	}

	return row, nil
}

// Restore implements the Entity interface.
func (b *Block) Restore(row Row) error {
	if len(row) != len(KindBlock.Descriptor().Columns) {
		return fmt.Errorf("block: expected %d columns, got %d", len(KindBlock.Descriptor().Columns), len(row))
	}

	id, err := row.Int(0)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	rawTrans, err := row.Bytes(1)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	trans, err := decodeList[Transaction](rawTrans)
	if err != nil {
		return fmt.Errorf("block: transactions: %w", err)
	}
	for i := range trans {
		trans[i].Confirmed = true
	}

	timestamp, err := row.Int(2)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	prevHash, err := row.String(3)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	hash, err := row.String(4)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	reward, err := row.Float(5)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	nonce, err := row.Int(6)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	difficulty, err := row.Int(7)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	*b = Block{
		ID:           uint64(id),
		Transactions: trans,
		TimeStamp:    uint64(timestamp),
		PrevHash:     prevHash,
		Hash:         hash,
		Reward:       reward,
		Nonce:        uint64(nonce),
		Difficulty:   uint(difficulty),
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%d:%s", b.ID, b.Hash)
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "0000000000000000000000000000000000000000000000000000000000000000"

	if len(hash) != len(match) || difficulty > uint(len(match)) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
