package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <block id | transaction id>",
	Short: "Print a block by id or a transaction by transaction id.",
	Args:  cobra.ExactArgs(1),
	Run:   searchRun,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func searchRun(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	e, err := store.Search(ctx, args[0])
	if err != nil {
		log.Fatal(err)
	}

	if err := printJSON(cmd, e); err != nil {
		log.Fatal(err)
	}
}
