package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

// balance reports the spendable balance, which already includes the outputs
// of unconfirmed transactions and excludes the outputs they spend, and the
// part of it that is confirmed.
type balance struct {
	Account   string  `json:"account"`
	Balance   float64 `json:"balance"`
	Confirmed float64 `json:"confirmed"`
	Spent     float64 `json:"pending_spent"`
	Received  float64 `json:"pending_received"`
	Net       float64 `json:"pending_net"`
}

var balanceAddress string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the spendable and confirmed balance and the pending amounts.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceAddress, "address", "d", "", "Address to report, defaults to the wallet address.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	w, store, err := openWallet(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	address := w.Address()
	if balanceAddress != "" {
		address = balanceAddress
	}

	value, err := w.BalanceOf(ctx, address)
	if err != nil {
		log.Fatal(err)
	}

	pending, err := w.PendingAmount(ctx, address)
	if err != nil {
		log.Fatal(err)
	}

	b := balance{
		Account:   address,
		Balance:   value,
		Confirmed: value - pending.Net(),
		Spent:     pending.Spent,
		Received:  pending.Received,
		Net:       pending.Net(),
	}

	if err := printJSON(cmd, b); err != nil {
		log.Fatal(err)
	}
}
