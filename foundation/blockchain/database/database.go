// Package database defines the ledger entities (blocks, transactions, inputs
// and outputs) and the descriptors that map each entity to a relational row.
// Persisting and reading rows is the job of the storage package; this package
// only knows how an entity looks as a row.
package database

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("not found")

// EventHandler defines a function that is called when events
// occur in the processing of mining blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Kind identifies an entity kind. Every kind maps to exactly one table.
type Kind int

// Set of entity kinds persisted by the ledger.
const (
	KindBlock Kind = iota + 1
	KindTransaction
	KindUnconfirmed
	KindUTXO
)

// Kinds lists every entity kind in a stable order.
var Kinds = []Kind{KindBlock, KindTransaction, KindUnconfirmed, KindUTXO}

// String implements the fmt.Stringer interface for logging.
func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindTransaction:
		return "transaction"
	case KindUnconfirmed:
		return "unconfirmed"
	case KindUTXO:
		return "utxo"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ColumnType represents the storage class of a column.
type ColumnType int

// Set of column storage classes.
const (
	Integer ColumnType = iota + 1
	Real
	Text
	Blob
)

// Column describes a single column of an entity table. Encoded columns hold
// nested entity sequences serialized with the ledger codec.
type Column struct {
	Name    string
	Type    ColumnType
	Encoded bool
}

// Descriptor carries the table metadata for an entity kind: the table name,
// the column order used for every row, and the column holding the distinct
// key used for deletes and lookups.
type Descriptor struct {
	Kind    Kind
	Table   string
	Columns []Column
	Key     string
}

// ColumnNames returns the column names in row order.
func (d Descriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// Encoded returns the names of the columns that hold serialized values.
func (d Descriptor) Encoded() []string {
	var names []string
	for _, col := range d.Columns {
		if col.Encoded {
			names = append(names, col.Name)
		}
	}
	return names
}

// KeyIndex returns the position of the distinct key column in the row.
func (d Descriptor) KeyIndex() int {
	for i, col := range d.Columns {
		if col.Name == d.Key {
			return i
		}
	}
	return -1
}

var transactionColumns = []Column{
	{Name: "id", Type: Integer},
	{Name: "type", Type: Integer},
	{Name: "inputs", Type: Blob, Encoded: true},
	{Name: "outputs", Type: Blob, Encoded: true},
	{Name: "timestamp", Type: Integer},
	{Name: "transaction_id", Type: Text},
	{Name: "fees", Type: Real},
}

var descriptors = map[Kind]Descriptor{
	KindBlock: {
		Kind:  KindBlock,
		Table: "blocks",
		Columns: []Column{
			{Name: "id", Type: Integer},
			{Name: "transactions", Type: Blob, Encoded: true},
			{Name: "timestamp", Type: Integer},
			{Name: "previous_hash", Type: Text},
			{Name: "hash", Type: Text},
			{Name: "reward", Type: Real},
			{Name: "nonce", Type: Integer},
			{Name: "difficulty", Type: Integer},
		},
		Key: "id",
	},
	KindTransaction: {
		Kind:    KindTransaction,
		Table:   "transactions",
		Columns: transactionColumns,
		Key:     "transaction_id",
	},
	KindUnconfirmed: {
		Kind:    KindUnconfirmed,
		Table:   "unconfirmed_transactions",
		Columns: transactionColumns,
		Key:     "transaction_id",
	},
	KindUTXO: {
		Kind:  KindUTXO,
		Table: "utxo",
		Columns: []Column{
			{Name: "id", Type: Integer},
			{Name: "value", Type: Real},
			{Name: "address", Type: Text},
			{Name: "transaction_id", Type: Text},
			{Name: "locking_script", Type: Blob},
		},
		Key: "locking_script",
	},
}

// Descriptor returns the table descriptor for the kind.
func (k Kind) Descriptor() Descriptor {
	return descriptors[k]
}

// =============================================================================

// Row is the storage representation of an entity: one value per descriptor
// column, in column order. Values are int64, float64, string or []byte.
type Row []any

// Int returns the integer stored at the specified position.
func (r Row) Int(i int) (int64, error) {
	v, ok := r[i].(int64)
	if !ok {
		return 0, fmt.Errorf("column %d: expected integer, got %T", i, r[i])
	}
	return v, nil
}

// Float returns the real number stored at the specified position.
func (r Row) Float(i int) (float64, error) {
	switch v := r[i].(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("column %d: expected real, got %T", i, r[i])
}

// String returns the text stored at the specified position.
func (r Row) String(i int) (string, error) {
	switch v := r[i].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", fmt.Errorf("column %d: expected text, got %T", i, r[i])
}

// Bytes returns the blob stored at the specified position.
func (r Row) Bytes(i int) ([]byte, error) {
	switch v := r[i].(type) {
	case []byte:
		return v, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("column %d: expected blob, got %T", i, r[i])
}

// =============================================================================

// Entity represents any value that can be persisted through its descriptor.
type Entity interface {
	Kind() Kind
	RowID() uint64
	SetRowID(id uint64)
	Snapshot() (Row, error)
	Restore(row Row) error
}

// NewEntity constructs an empty entity of the specified kind, ready to
// restore a row into.
func NewEntity(kind Kind) (Entity, error) {
	switch kind {
	case KindBlock:
		return &Block{}, nil
	case KindTransaction:
		return &Transaction{Confirmed: true}, nil
	case KindUnconfirmed:
		return &Transaction{}, nil
	case KindUTXO:
		return &Output{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %d", int(kind))
}

// KeyValue returns the distinct key value of the entity as it will be stored.
func KeyValue(e Entity) (any, error) {
	row, err := e.Snapshot()
	if err != nil {
		return nil, err
	}

	idx := e.Kind().Descriptor().KeyIndex()
	if idx < 0 {
		return nil, fmt.Errorf("%s: descriptor has no key column", e.Kind())
	}

	return row[idx], nil
}
