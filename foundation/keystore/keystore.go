// Package keystore manages the private key of a local wallet identity stored
// as a hex encoded ECDSA key file.
package keystore

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Extension is the file extension of every key file.
const Extension = ".ecdsa"

// KeyStore provides access to the key file <dir>/<name>.ecdsa.
type KeyStore struct {
	dir  string
	name string
}

// New constructs a key store for the named key in the directory. The key
// file does not need to exist yet.
func New(dir string, name string) *KeyStore {
	return &KeyStore{
		dir:  dir,
		name: strings.TrimSuffix(name, Extension),
	}
}

// Path returns the location of the key file.
func (ks *KeyStore) Path() string {
	return filepath.Join(ks.dir, ks.name+Extension)
}

// Name returns the name of the key.
func (ks *KeyStore) Name() string {
	return ks.name
}

// PrivateKey loads the private key from disk. The error wraps fs.ErrNotExist
// when the key has not been generated.
func (ks *KeyStore) PrivateKey() (*ecdsa.PrivateKey, error) {
	if _, err := os.Stat(ks.Path()); err != nil {
		return nil, fmt.Errorf("key %s: %w", ks.name, err)
	}

	privateKey, err := crypto.LoadECDSA(ks.Path())
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", ks.name, err)
	}

	return privateKey, nil
}

// Address returns the address derived from the public key.
func (ks *KeyStore) Address() (string, error) {
	privateKey, err := ks.PrivateKey()
	if err != nil {
		return "", err
	}

	return signature.Address(privateKey.PublicKey), nil
}

// Generate creates a new key pair and saves the private key. An existing key
// file is never overwritten.
func (ks *KeyStore) Generate() error {
	if _, err := os.Stat(ks.Path()); err == nil {
		return fmt.Errorf("key %s: %w", ks.name, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("key %s: %w", ks.name, err)
	}

	if err := os.MkdirAll(ks.dir, 0700); err != nil {
		return fmt.Errorf("key %s: create folder: %w", ks.name, err)
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("key %s: generate: %w", ks.name, err)
	}

	if err := crypto.SaveECDSA(ks.Path(), privateKey); err != nil {
		return fmt.Errorf("key %s: save: %w", ks.name, err)
	}

	return nil
}
