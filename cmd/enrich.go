package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/encorenotes/setlist-cli/internal/enrich"
	"github.com/encorenotes/setlist-cli/internal/monitoring"
	"github.com/encorenotes/setlist-cli/internal/runlock"
	"github.com/encorenotes/setlist-cli/internal/store"
	"github.com/encorenotes/setlist-cli/pkg/setlistfm"
)

var (
	enrichRecords   string
	enrichBatchSize int
	enrichArtist    string
	enrichVenue     string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich source records with setlist.fm data",
}

var enrichRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Drain the unprocessed backlog of past records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		table, err := store.ParseTable(enrichRecords)
		if err != nil {
			return err
		}

		// One writer per table. A second run against the same table would
		// reprocess the same unprocessed records.
		lock, err := runlock.New(cfg.Enrich.LockDir, string(table))
		if err != nil {
			return err
		}
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				zap.L().Warn("release run lock failed", zap.Error(err))
			}
		}()

		st, err := openStore(ctx, table)
		if err != nil {
			return err
		}
		defer st.Close()

		driver, err := buildDriver(st, table)
		if err != nil {
			return err
		}

		batchSize := enrichBatchSize
		if batchSize <= 0 {
			batchSize = cfg.Enrich.BatchSize
		}

		stats, err := driver.RunBackfill(ctx, batchSize)
		if err != nil {
			return eris.Wrap(err, "backfill")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

var enrichSingleCmd = &cobra.Command{
	Use:   "single",
	Short: "Resolve and enrich one record by artist and venue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		table, err := store.ParseTable(enrichRecords)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, table)
		if err != nil {
			return err
		}
		defer st.Close()

		driver, err := buildDriver(st, table)
		if err != nil {
			return err
		}

		result, err := driver.RunSingle(ctx, enrichArtist, enrichVenue)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// buildDriver wires the catalog client, cascade, pipeline and metrics.
func buildDriver(st store.RecordStore, table store.Table) (*enrich.Driver, error) {
	if cfg.SetlistFM.APIKey == "" {
		return nil, eris.New("setlistfm.api_key is not configured")
	}

	client := setlistfm.NewClient(cfg.SetlistFM.APIKey,
		setlistfm.WithBaseURL(cfg.SetlistFM.BaseURL),
		setlistfm.WithRateInterval(cfg.SetlistFM.RateInterval()),
	)

	resolver := enrich.NewResolver(client)
	enricher := enrich.NewEnricher(resolver, st)

	return enrich.NewDriver(st, enricher, table,
		enrich.WithMetrics(monitoring.New()),
		enrich.WithPagePause(cfg.Enrich.PagePause()),
	), nil
}

func init() {
	enrichCmd.PersistentFlags().StringVar(&enrichRecords, "records", "performances", "source table: performances or reviews")

	enrichRunCmd.Flags().IntVar(&enrichBatchSize, "batch-size", 0, "records per page (default from config)")

	enrichSingleCmd.Flags().StringVar(&enrichArtist, "artist", "", "artist name substring (required)")
	enrichSingleCmd.Flags().StringVar(&enrichVenue, "venue", "", "venue name substring (required)")
	_ = enrichSingleCmd.MarkFlagRequired("artist")
	_ = enrichSingleCmd.MarkFlagRequired("venue")

	enrichCmd.AddCommand(enrichRunCmd)
	enrichCmd.AddCommand(enrichSingleCmd)
	rootCmd.AddCommand(enrichCmd)
}
