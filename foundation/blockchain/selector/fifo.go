package selector

import (
	"sort"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// fifoSelect returns the oldest transactions across every sender.
var fifoSelect = func(m map[string][]database.Transaction, howMany int) []database.Transaction {
	final := []database.Transaction{}
	for _, key := range senders(m) {
		final = append(final, m[key]...)
	}

	sort.Stable(byArrival(final))

	if howMany >= 0 && len(final) > howMany {
		final = final[:howMany]
	}

	return final
}
