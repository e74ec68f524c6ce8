// Package signature provides helper functions for handling the ledger
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	jsoniter "github.com/json-iterator/go"
)

// ZeroHash represents a hash code of zeros. It is used as the previous hash
// of the first block in the chain.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// ledgerStamp is embedded into every signed digest so signatures produced by
// this ledger can't be replayed as signatures over arbitrary data.
const ledgerStamp = "\x19Ledger Signed Message:\n32"

// json is the canonical encoder used for hash preimages. Struct fields are
// encoded in declaration order and map keys are sorted.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidSignature is returned when a signature is malformed or was not
// produced by the expected key.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns a unique hex string for the value. The value is encoded as
// canonical JSON before hashing.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return HashBytes(data)
}

// HashBytes returns the sha256 digest of the data as a hex string.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashString returns the sha256 digest of the string as a hex string.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// Sign uses the specified private key to sign the data. The signature is
// returned in the 65 byte [R|S|V] format.
func Sign(data []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {

	// Prepare the data for signing.
	digest := stamp(data)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return nil, err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest, rs) {
		return nil, ErrInvalidSignature
	}

	return sig, nil
}

// FromAddress recovers the address of the private key that produced the
// signature over the data.
func FromAddress(data []byte, sig []byte) (string, error) {
	if len(sig) != crypto.SignatureLength {
		return "", ErrInvalidSignature
	}

	// Check the recovery id is either 0 or 1.
	if v := sig[crypto.RecoveryIDOffset]; v != 0 && v != 1 {
		return "", errors.New("invalid recovery id")
	}

	digest := stamp(data)

	publicKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return "", ErrInvalidSignature
	}

	// Reject signatures the recovered key does not verify, such as a
	// malleated S value.
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest, sig[:crypto.RecoveryIDOffset]) {
		return "", ErrInvalidSignature
	}

	return crypto.PubkeyToAddress(*publicKey).Hex(), nil
}

// PublicKeyBytes returns the uncompressed serialized form of the public key.
func PublicKeyBytes(pk ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(&pk)
}

// Address derives the ledger address for the public key.
func Address(pk ecdsa.PublicKey) string {
	return crypto.PubkeyToAddress(pk).Hex()
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(data []byte) []byte {

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	dataHash := crypto.Keccak256(data)

	// Hash the stamp and dataHash together in a final 32 byte array
	// that represents the data.
	return crypto.Keccak256([]byte(ledgerStamp), dataHash)
}
