package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/ardanlabs/utxoledger/foundation/validate"
	"github.com/spf13/cobra"
)

// sendInput is validated before anything is written.
type sendInput struct {
	To    string  `json:"to" validate:"required,eth_addr"`
	Value float64 `json:"value" validate:"gt=0"`
}

var (
	to    string
	value float64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address or key name of the receiver.")
	sendCmd.Flags().Float64VarP(&value, "value", "v", 0, "Value to send.")
}

func sendRun(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	receiver := to
	if !strings.HasPrefix(receiver, "0x") {
		ns, err := nameservice.New(accountPath)
		if err != nil {
			log.Fatal(err)
		}
		if addr, ok := ns.Address(receiver); ok {
			receiver = addr
		}
	}

	if err := validate.Check(sendInput{To: receiver, Value: value}); err != nil {
		log.Fatal(err)
	}

	w, store, err := openWallet(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	tx, err := w.ConstructTx(ctx, w.Address(), receiver, value)
	if err != nil {
		log.Fatal(err)
	}

	stored, err := store.AcceptTransaction(ctx, tx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), stored.TransactionID)
}
