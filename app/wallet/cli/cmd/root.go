// Package cmd contains wallet app
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/keystore"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	accountName string
	accountPath string
	storeURL    string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private", "Name of the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&storeURL, "store", "s", "sqlite://zblock/ledger.db", "Url of the ledger store.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple UTXO wallet",
}

// Execute runs the wallet command line.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func keyStore() *keystore.KeyStore {
	return keystore.New(accountPath, accountName)
}

// openStore opens the ledger store and makes sure the tables exist.
func openStore(ctx context.Context) (*storage.Store, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("parsing store url: %w", err)
	}

	store, err := storage.Open(u, nil)
	if err != nil {
		return nil, err
	}

	if err := storage.CreateSchema(ctx, store.DB(), store.Engine()); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

// openWallet opens the store and the wallet of the selected account. The
// account key is generated when it does not exist.
func openWallet(ctx context.Context) (*wallet.Wallet, *storage.Store, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	w, err := wallet.New(keyStore(), store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return w, store, nil
}

// printJSON writes the value as indented JSON to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
