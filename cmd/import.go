package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/encorenotes/setlist-cli/internal/ingest"
	"github.com/encorenotes/setlist-cli/internal/store"
)

var importRecords string

var importCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import source records from a CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("count"); err != nil {
			return err
		}
		table, err := store.ParseTable(importRecords)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close()

		st, err := openStore(ctx, table)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := ingest.ImportCSV(ctx, f, st)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	importCmd.Flags().StringVar(&importRecords, "records", "performances", "source table: performances or reviews")
	rootCmd.AddCommand(importCmd)
}
