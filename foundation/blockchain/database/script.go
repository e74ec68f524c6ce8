package database

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// scriptSeparator delimits the fields of a locking script.
const scriptSeparator = "<SEPARATOR>"

// publicKeyLength is the size of an uncompressed secp256k1 public key.
const publicKeyLength = 65

// LockingScript records the public key of the wallet that created an output
// along with its value, owner address, producing transaction and creation
// time. Spending the output requires a signature over the raw script bytes
// by the key of the owner address.
type LockingScript struct {
	PublicKey     []byte
	Value         float64
	Address       string
	TransactionID string
	Created       time.Time
}

// NewLockingScript serializes the locking script fields into one blob.
func NewLockingScript(publicKey []byte, value float64, address string, txID string, created time.Time) []byte {
	sep := []byte(scriptSeparator)

	fields := [][]byte{
		publicKey,
		[]byte(formatValue(value)),
		[]byte(address),
		[]byte(txID),
		[]byte(strconv.FormatInt(created.UnixNano(), 10)),
	}

	return bytes.Join(fields, sep)
}

// ParseLockingScript reverses NewLockingScript.
func ParseLockingScript(script []byte) (LockingScript, error) {
	sep := []byte(scriptSeparator)

	// The public key is raw binary and may contain any byte sequence, so it
	// is split off by length before looking for separators.
	if len(script) < publicKeyLength+len(sep) || !bytes.HasPrefix(script[publicKeyLength:], sep) {
		return LockingScript{}, errors.New("locking script: malformed public key")
	}

	parts := bytes.Split(script[publicKeyLength+len(sep):], sep)
	if len(parts) != 4 {
		return LockingScript{}, fmt.Errorf("locking script: expected 4 fields after public key, got %d", len(parts))
	}

	value, err := strconv.ParseFloat(string(parts[0]), 64)
	if err != nil {
		return LockingScript{}, fmt.Errorf("locking script: value: %w", err)
	}

	nanos, err := strconv.ParseInt(string(parts[3]), 10, 64)
	if err != nil {
		return LockingScript{}, fmt.Errorf("locking script: created: %w", err)
	}

	ls := LockingScript{
		PublicKey:     bytes.Clone(script[:publicKeyLength]),
		Value:         value,
		Address:       string(parts[1]),
		TransactionID: string(parts[2]),
		Created:       time.Unix(0, nanos),
	}

	return ls, nil
}

// formatValue renders a coin value with the shortest exact representation.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
