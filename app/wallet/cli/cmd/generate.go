package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	ks := keyStore()

	if err := ks.Generate(); err != nil {
		log.Fatal(err)
	}

	address, err := ks.Address()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), ks.Path(), address)
}
