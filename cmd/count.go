package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/encorenotes/setlist-cli/internal/store"
)

var countRecords string

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the unprocessed past-record backlog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("count"); err != nil {
			return err
		}
		table, err := store.ParseTable(countRecords)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, table)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.CountUnprocessed(ctx, time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d unprocessed past records\n", table, n)
		return nil
	},
}

func init() {
	countCmd.Flags().StringVar(&countRecords, "records", "performances", "source table: performances or reviews")
	rootCmd.AddCommand(countCmd)
}
