package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:     "address",
	Aliases: []string{"account"},
	Short:   "Print the address for the specific wallet",
	Run:     addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
}

func addressRun(cmd *cobra.Command, args []string) {
	address, err := keyStore().Address()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), address)
}
