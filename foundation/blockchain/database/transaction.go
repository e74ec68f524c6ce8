package database

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// FeeRate is the share of the spent input value a transaction pays as fees.
const FeeRate = 0.01

// TxType represents the kind of value transfer a transaction performs.
type TxType int

// Set of transaction types.
const (
	TxTypeCoinbase TxType = 1 // Reward paid to the miner of a block, no inputs.
	TxTypeTransfer TxType = 2 // Peer to peer transfer spending existing outputs.
)

// String implements the fmt.Stringer interface for logging.
func (t TxType) String() string {
	switch t {
	case TxTypeCoinbase:
		return "coinbase"
	case TxTypeTransfer:
		return "transfer"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// =============================================================================

// Input spends a previously created output. The scriptSig is a signature
// over the referenced locking script proving ownership of the output.
type Input struct {
	Value         float64 `json:"value"`
	Address       string  `json:"address"`
	PrevTxID      string  `json:"prev_tx_id"`
	LockingScript []byte  `json:"locking_script"`
	ScriptSig     []byte  `json:"script_sig"`
}

// Verify checks the scriptSig is a signature over the locking script made
// by the owner of the output, and that the input claims the value and owner
// recorded in the script. The public key in the script only records which
// wallet created the output.
func (in Input) Verify() error {
	ls, err := ParseLockingScript(in.LockingScript)
	if err != nil {
		return err
	}

	if ls.Value != in.Value {
		return fmt.Errorf("input value %s does not match locking script value %s", formatValue(in.Value), formatValue(ls.Value))
	}

	if ls.Address != in.Address {
		return fmt.Errorf("input address %s does not match locking script address %s", in.Address, ls.Address)
	}

	signer, err := signature.FromAddress(in.LockingScript, in.ScriptSig)
	if err != nil {
		return fmt.Errorf("input %s: %w", in.PrevTxID, err)
	}

	if !strings.EqualFold(signer, ls.Address) {
		return fmt.Errorf("input %s: signer %s does not own the output of %s: %w", in.PrevTxID, signer, ls.Address, signature.ErrInvalidSignature)
	}

	return nil
}

// attributes returns the input fields in the order they feed the
// transaction id.
func (in Input) attributes() []string {
	return []string{
		formatValue(in.Value),
		in.Address,
		in.PrevTxID,
		hex.EncodeToString(in.LockingScript),
		hex.EncodeToString(in.ScriptSig),
	}
}

// =============================================================================

// Transaction consumes a set of inputs and creates a set of outputs. A
// transaction that is not yet part of a mined block lives in the unconfirmed
// pool and is persisted to a separate table.
type Transaction struct {
	ID            uint64   `json:"id"`
	Type          TxType   `json:"type"`
	Inputs        []Input  `json:"inputs"`
	Outputs       []Output `json:"outputs"`
	TimeStamp     uint64   `json:"timestamp"` // Unix time in nanoseconds.
	TransactionID string   `json:"transaction_id"`
	Fees          float64  `json:"fees"`
	Confirmed     bool     `json:"-"`
}

// NewTransaction constructs an empty unconfirmed transaction.
func NewTransaction(id uint64, txType TxType, timestamp time.Time) Transaction {
	return Transaction{
		ID:        id,
		Type:      txType,
		Inputs:    []Input{},
		Outputs:   []Output{},
		TimeStamp: uint64(timestamp.UnixNano()),
	}
}

// IsCoinbase reports whether this transaction is a mining reward.
func (tx Transaction) IsCoinbase() bool {
	return tx.Type == TxTypeCoinbase
}

// AddInput appends an input to the transaction.
func (tx *Transaction) AddInput(in Input) {
	tx.Inputs = append(tx.Inputs, in)
}

// AddOutput appends an output to the transaction.
func (tx *Transaction) AddOutput(out Output) {
	tx.Outputs = append(tx.Outputs, out)
}

// ComputeTxID hashes every input attribute and the timestamp into the
// transaction id and assigns it. The same inputs and timestamp always
// produce the same id.
func (tx *Transaction) ComputeTxID() string {
	var b strings.Builder
	for _, in := range tx.Inputs {
		for _, attr := range in.attributes() {
			b.WriteString(signature.HashString(attr))
		}
	}
	b.WriteString(signature.HashString(strconv.FormatUint(tx.TimeStamp, 10)))

	tx.TransactionID = signature.HashString(b.String())
	return tx.TransactionID
}

// CalculateFees sets the fees to FeeRate of the total input value.
func (tx *Transaction) CalculateFees() float64 {
	tx.Fees = tx.TotalInput() * FeeRate
	return tx.Fees
}

// TotalInput returns the sum of the input values.
func (tx Transaction) TotalInput() float64 {
	var total float64
	for _, in := range tx.Inputs {
		total += in.Value
	}
	return total
}

// TotalOutput returns the sum of the output values.
func (tx Transaction) TotalOutput() float64 {
	var total float64
	for _, out := range tx.Outputs {
		total += out.Value
	}
	return total
}

// Verify performs the structural and signature checks required before the
// transaction can be accepted into the unconfirmed pool.
func (tx Transaction) Verify() error {
	switch tx.Type {
	case TxTypeCoinbase:
		if len(tx.Inputs) != 0 {
			return errors.New("coinbase transaction can't have inputs")
		}

	case TxTypeTransfer:
		if len(tx.Inputs) == 0 {
			return errors.New("transfer transaction has no inputs")
		}

	default:
		return fmt.Errorf("unknown transaction type %d", tx.Type)
	}

	if len(tx.Outputs) == 0 {
		return errors.New("transaction has no outputs")
	}

	for _, in := range tx.Inputs {
		if err := in.Verify(); err != nil {
			return err
		}
	}

	if tx.TotalOutput() > tx.TotalInput() && !tx.IsCoinbase() {
		return fmt.Errorf("outputs %s exceed inputs %s", formatValue(tx.TotalOutput()), formatValue(tx.TotalInput()))
	}

	return nil
}

// Kind implements the Entity interface.
func (tx *Transaction) Kind() Kind {
	if tx.Confirmed {
		return KindTransaction
	}
	return KindUnconfirmed
}

// RowID implements the Entity interface.
func (tx *Transaction) RowID() uint64 {
	return tx.ID
}

// SetRowID implements the Entity interface.
func (tx *Transaction) SetRowID(id uint64) {
	tx.ID = id
}

// Snapshot implements the Entity interface.
func (tx *Transaction) Snapshot() (Row, error) {
	inputs, err := encodeList(tx.Inputs)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: inputs: %w", tx.TransactionID, err)
	}

	outputs, err := encodeList(tx.Outputs)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: outputs: %w", tx.TransactionID, err)
	}

	row := Row{
		int64(tx.ID),
		int64(tx.Type),
		inputs,
		outputs,
		int64(tx.TimeStamp),
		tx.TransactionID,
		tx.Fees,
	}

	return row, nil
}

// Restore implements the Entity interface. The Confirmed flag is left
// untouched since it is a property of the table, not of the row.
func (tx *Transaction) Restore(row Row) error {
	if len(row) != len(transactionColumns) {
		return fmt.Errorf("transaction: expected %d columns, got %d", len(transactionColumns), len(row))
	}

	id, err := row.Int(0)
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	txType, err := row.Int(1)
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	rawInputs, err := row.Bytes(2)
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	inputs, err := decodeList[Input](rawInputs)
	if err != nil {
		return fmt.Errorf("transaction: inputs: %w", err)
	}

	rawOutputs, err := row.Bytes(3)
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	outputs, err := decodeList[Output](rawOutputs)
	if err != nil {
		return fmt.Errorf("transaction: outputs: %w", err)
	}

	timestamp, err := row.Int(4)
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	txID, err := row.String(5)
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	fees, err := row.Float(6)
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	tx.ID = uint64(id)
	tx.Type = TxType(txType)
	tx.Inputs = inputs
	tx.Outputs = outputs
	tx.TimeStamp = uint64(timestamp)
	tx.TransactionID = txID
	tx.Fees = fees

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s:%s:%d", tx.Type, tx.TransactionID, tx.ID)
}
