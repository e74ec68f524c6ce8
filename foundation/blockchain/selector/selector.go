// Package selector provides different algorithms for selecting which
// unconfirmed transactions go into the next block.
package selector

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFees = "fees"
	StrategyFIFO = "fifo"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFees: feesSelect,
	StrategyFIFO: fifoSelect,
}

// Func defines a function that takes the unconfirmed transactions grouped by
// sender and selects howMany of them in an order based on the functions
// strategy. All selector functions MUST respect the arrival order of each
// sender's transactions. Receiving -1 for howMany must return all the
// transactions in the strategies ordering.
type Func func(transactions map[string][]database.Transaction, howMany int) []database.Transaction

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// Group groups the transactions by the address spending the first input.
// Transactions without inputs are grouped under the empty address.
func Group(trans []database.Transaction) map[string][]database.Transaction {
	m := make(map[string][]database.Transaction)
	for _, tx := range trans {
		var from string
		if len(tx.Inputs) > 0 {
			from = tx.Inputs[0].Address
		}
		m[from] = append(m[from], tx)
	}
	return m
}

// Select runs the strategy over the pool and returns at most howMany
// transactions that can be mined together. A transaction spending an output
// of another pooled transaction is left in the pool when that parent is not
// selected, and parents are always placed ahead of their children.
func Select(fn Func, pool []database.Transaction, howMany int) []database.Transaction {
	pooled := make(map[string]bool, len(pool))
	for _, tx := range pool {
		pooled[tx.TransactionID] = true
	}

	picked := fn(Group(pool), howMany)

	// Leaving out a child can orphan its own children, so repeat until
	// nothing else is dropped.
	for {
		chosen := make(map[string]bool, len(picked))
		for _, tx := range picked {
			chosen[tx.TransactionID] = true
		}

		kept := make([]database.Transaction, 0, len(picked))
		for _, tx := range picked {
			if !waitsOnParent(tx, pooled, chosen) {
				kept = append(kept, tx)
			}
		}

		if len(kept) == len(picked) {
			break
		}
		picked = kept
	}

	final := make([]database.Transaction, 0, len(picked))
	placed := make(map[string]bool, len(picked))
	for len(final) < len(picked) {
		progress := false
		for _, tx := range picked {
			if placed[tx.TransactionID] || waitsOnParent(tx, pooled, placed) {
				continue
			}
			final = append(final, tx)
			placed[tx.TransactionID] = true
			progress = true
		}
		if !progress {
			break
		}
	}

	return final
}

// =============================================================================

// waitsOnParent reports whether the transaction spends an output of a pooled
// transaction that is not in the done set.
func waitsOnParent(tx database.Transaction, pooled map[string]bool, done map[string]bool) bool {
	for _, in := range tx.Inputs {
		if pooled[in.PrevTxID] && !done[in.PrevTxID] {
			return true
		}
	}
	return false
}

// senders returns the keys of the map in a stable order.
func senders(m map[string][]database.Transaction) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================

// byArrival provides sorting support by the transaction timestamp, falling
// back to the pool id.
type byArrival []database.Transaction

// Len returns the number of transactions in the list.
func (ba byArrival) Len() int {
	return len(ba)
}

// Less helps to sort the list by timestamp in ascending order to keep the
// transactions in the order they were accepted.
func (ba byArrival) Less(i, j int) bool {
	if ba[i].TimeStamp == ba[j].TimeStamp {
		return ba[i].ID < ba[j].ID
	}
	return ba[i].TimeStamp < ba[j].TimeStamp
}

// Swap moves transactions in the order of the timestamp value.
func (ba byArrival) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}

// =============================================================================

// byFees provides sorting support by the transaction fees value.
type byFees []database.Transaction

// Len returns the number of transactions in the list.
func (bf byFees) Len() int {
	return len(bf)
}

// Less helps to sort the list by fees in descending order to pick the
// transactions that provide the best reward.
func (bf byFees) Less(i, j int) bool {
	return bf[i].Fees > bf[j].Fees
}

// Swap moves transactions in the order of the fees value.
func (bf byFees) Swap(i, j int) {
	bf[i], bf[j] = bf[j], bf[i]
}
