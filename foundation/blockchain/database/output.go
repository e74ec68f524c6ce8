package database

import (
	"fmt"
)

// Output represents value owned by an address. Once persisted in the utxo
// table it is spendable exactly once, identified by its locking script.
type Output struct {
	ID            uint64  `json:"id"`
	Value         float64 `json:"value"`
	Address       string  `json:"address"`
	TransactionID string  `json:"transaction_id"`
	LockingScript []byte  `json:"locking_script"`
}

// NewOutput constructs an output without a locking script. The wallet that
// creates the output is responsible for attaching one.
func NewOutput(id uint64, value float64, address string, txID string) Output {
	return Output{
		ID:            id,
		Value:         value,
		Address:       address,
		TransactionID: txID,
	}
}

// Kind implements the Entity interface.
func (o *Output) Kind() Kind {
	return KindUTXO
}

// RowID implements the Entity interface.
func (o *Output) RowID() uint64 {
	return o.ID
}

// SetRowID implements the Entity interface.
func (o *Output) SetRowID(id uint64) {
	o.ID = id
}

// Snapshot implements the Entity interface.
func (o *Output) Snapshot() (Row, error) {
	row := Row{
		int64(o.ID),
		o.Value,
		o.Address,
		o.TransactionID,
		o.LockingScript,
	}

	return row, nil
}

// Restore implements the Entity interface.
func (o *Output) Restore(row Row) error {
	if len(row) != len(KindUTXO.Descriptor().Columns) {
		return fmt.Errorf("utxo: expected %d columns, got %d", len(KindUTXO.Descriptor().Columns), len(row))
	}

	id, err := row.Int(0)
	if err != nil {
		return fmt.Errorf("utxo: %w", err)
	}

	value, err := row.Float(1)
	if err != nil {
		return fmt.Errorf("utxo: %w", err)
	}

	address, err := row.String(2)
	if err != nil {
		return fmt.Errorf("utxo: %w", err)
	}

	txID, err := row.String(3)
	if err != nil {
		return fmt.Errorf("utxo: %w", err)
	}

	script, err := row.Bytes(4)
	if err != nil {
		return fmt.Errorf("utxo: %w", err)
	}

	*o = Output{
		ID:            uint64(id),
		Value:         value,
		Address:       address,
		TransactionID: txID,
		LockingScript: script,
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (o Output) String() string {
	return fmt.Sprintf("%s:%s:%s", o.TransactionID, o.Address, formatValue(o.Value))
}
