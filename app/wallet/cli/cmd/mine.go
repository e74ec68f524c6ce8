package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

var (
	genesisPath string
	workers     int
	mineEmpty   bool
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine one block paying the reward to the wallet.",
	Run:   mineRun,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify every block of the chain.",
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", genesis.DefaultPath, "Path to the genesis file.")
	mineCmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of goroutines searching the nonce.")
	mineCmd.Flags().BoolVarP(&mineEmpty, "empty", "e", true, "Mine a reward block when no transactions are pending.")
}

// newState builds the ledger state over the wallet of the selected account.
func newState(ctx context.Context) (*state.State, func(), error) {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return nil, nil, err
	}

	w, store, err := openWallet(ctx)
	if err != nil {
		return nil, nil, err
	}

	st, err := state.New(state.Config{
		Store:           store,
		Wallet:          w,
		Genesis:         gen,
		Workers:         workers,
		MineEmptyBlocks: mineEmpty,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return st, func() { store.Close() }, nil
}

func mineRun(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeFn, err := newState(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	block, err := st.MineNewBlock(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "block %d %s txs[%d] fees[%v]\n", block.ID, block.Hash, len(block.Transactions), block.Reward)
}

func verifyRun(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	st, closeFn, err := newState(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	if err := st.VerifyChain(ctx); err != nil {
		log.Fatal(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "chain verified")
}
