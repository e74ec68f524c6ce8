package selector

import (
	"sort"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// feesSelect returns transactions with the best fees while respecting the
// arrival order of each sender's transactions.
var feesSelect = func(m map[string][]database.Transaction, howMany int) []database.Transaction {

	/*
		Bill: {TimeStamp: 2, Fees: 2.5},
			  {TimeStamp: 1, Fees: 1.5},
		Pavl: {TimeStamp: 2, Fees: 2.0},
			  {TimeStamp: 1, Fees: 0.75},
		Edua: {TimeStamp: 2, Fees: 0.75},
			  {TimeStamp: 1, Fees: 1.0},
	*/

	// Sort the transactions per sender by arrival.
	for key := range m {
		if len(m[key]) > 1 {
			sort.Sort(byArrival(m[key]))
		}
	}

	/*
		Bill: {TimeStamp: 1, Fees: 1.5},
		      {TimeStamp: 2, Fees: 2.5},
		Pavl: {TimeStamp: 1, Fees: 0.75},
		      {TimeStamp: 2, Fees: 2.0},
		Edua: {TimeStamp: 1, Fees: 1.0},
		      {TimeStamp: 2, Fees: 0.75},
	*/

	// Pick the first transaction in the slice for each sender. Each iteration
	// represents a new row of selections. Keep doing that until all the
	// transactions have been selected.
	keys := senders(m)
	var rows [][]database.Transaction
	for {
		var row []database.Transaction
		for _, key := range keys {
			if len(m[key]) > 0 {
				row = append(row, m[key][0])
				m[key] = m[key][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	/*
		0: Bill: {TimeStamp: 1, Fees: 1.5},
		0: Edua: {TimeStamp: 1, Fees: 1.0},
		0: Pavl: {TimeStamp: 1, Fees: 0.75},
		1: Bill: {TimeStamp: 2, Fees: 2.5},
		1: Edua: {TimeStamp: 2, Fees: 0.75},
		1: Pavl: {TimeStamp: 2, Fees: 2.0},
	*/

	// Sort each row by fees unless we will take all transactions from that
	// row anyway. Then try to select the number of requested transactions.
	// Keep pulling transactions from each row until the amount is fulfilled
	// or there are no more transactions.
	final := []database.Transaction{}
done:
	for _, row := range rows {
		need := howMany - len(final)
		if howMany >= 0 && len(row) > need {
			sort.Stable(byFees(row))
			final = append(final, row[:need]...)
			break done
		}
		final = append(final, row...)
	}

	/*
		0: Bill: {TimeStamp: 1, Fees: 1.5},
		1: Edua: {TimeStamp: 1, Fees: 1.0},
		2: Pavl: {TimeStamp: 1, Fees: 0.75},
		3: Bill: {TimeStamp: 2, Fees: 2.5},
	*/

	return final
}
