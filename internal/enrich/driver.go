package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/encorenotes/setlist-cli/internal/model"
	"github.com/encorenotes/setlist-cli/internal/monitoring"
	"github.com/encorenotes/setlist-cli/internal/store"
)

// progressEvery controls how often the driver logs rate and ETA.
const progressEvery = 10

// Driver drains the unprocessed backlog of one source table through the
// enrichment pipeline, one record at a time.
type Driver struct {
	store     store.RecordStore
	enricher  *Enricher
	table     store.Table
	metrics   *monitoring.Metrics
	pagePause time.Duration
	now       func() time.Time
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithMetrics attaches outcome counters.
func WithMetrics(m *monitoring.Metrics) DriverOption {
	return func(d *Driver) { d.metrics = m }
}

// WithPagePause sets the pause between record pages.
func WithPagePause(p time.Duration) DriverOption {
	return func(d *Driver) { d.pagePause = p }
}

// WithClock fixes the driver's clock for testing.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates a batch driver over the given store and pipeline.
func NewDriver(st store.RecordStore, enricher *Enricher, table store.Table, opts ...DriverOption) *Driver {
	d := &Driver{
		store:     st,
		enricher:  enricher,
		table:     table,
		pagePause: 2 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunBackfill processes every unprocessed past record until the backlog
// counted at the start is drained or a page comes back empty.
//
// Paging is keyset-based: the cursor advances past the last record of each
// page regardless of how that page's records were resolved, so rows that
// drop out of the unprocessed filter mid-run never shift the window, and
// rows left unprocessed by transient errors are not revisited until the
// next run.
func (d *Driver) RunBackfill(ctx context.Context, batchSize int) (*model.RunStats, error) {
	log := zap.L().With(
		zap.String("component", "enrich.driver"),
		zap.String("table", string(d.table)),
	)
	cutoff := d.now()

	total, err := d.store.CountUnprocessed(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "driver: count unprocessed")
	}

	stats := &model.RunStats{}
	if total == 0 {
		log.Info("no unprocessed past records")
		return stats, nil
	}
	log.Info("starting backfill", zap.Int("total", total), zap.Int("batch_size", batchSize))
	if d.metrics != nil {
		d.metrics.SetBacklog(string(d.table), total)
	}

	start := time.Now()
	var cursor store.Cursor
	pageNum := 0

	for stats.Total < total {
		records, err := d.store.ListUnprocessed(ctx, cutoff, cursor, batchSize)
		if err != nil {
			return stats, eris.Wrap(err, "driver: list unprocessed")
		}
		if len(records) == 0 {
			break
		}
		pageNum++
		log.Info("processing page", zap.Int("page", pageNum), zap.Int("records", len(records)))

		for _, rec := range records {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}

			res := d.enricher.EnrichRecord(ctx, rec)
			stats.Add(res.Outcome, res.Method)
			if d.metrics != nil {
				d.metrics.ObserveOutcome(string(d.table), string(res.Outcome), string(res.Method))
				d.metrics.SetBacklog(string(d.table), total-stats.Total)
			}

			if stats.Total%progressEvery == 0 {
				d.logProgress(log, stats, total, start)
			}
			if stats.Total >= total {
				break
			}
		}

		cursor = store.After(records[len(records)-1])

		if stats.Total < total && d.pagePause > 0 {
			if err := sleepCtx(ctx, d.pagePause); err != nil {
				return stats, err
			}
		}
	}

	elapsed := time.Since(start)
	log.Info("backfill complete",
		zap.Int("total", stats.Total),
		zap.Int("success", stats.Success),
		zap.Int("success_exact_date", stats.SuccessExactDate),
		zap.Int("success_artist_exact_date", stats.SuccessArtistCatalog),
		zap.Int("success_venue_fallback", stats.SuccessVenueFallback),
		zap.Int("not_found", stats.NotFound),
		zap.Int("empty", stats.Empty),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
		zap.Float64("success_rate", stats.SuccessRate()),
		zap.Duration("elapsed", elapsed),
	)
	return stats, nil
}

// RunSingle resolves and enriches exactly one record matched by artist and
// venue name, newest first. Meant for manual verification.
func (d *Driver) RunSingle(ctx context.Context, artist, venue string) (*Result, error) {
	rec, err := d.store.FindByArtistVenue(ctx, artist, venue)
	if err != nil {
		return nil, eris.Wrapf(err, "driver: find record for %q at %q", artist, venue)
	}

	zap.L().Info("processing single record",
		zap.String("component", "enrich.driver"),
		zap.String("record", rec.ID),
		zap.String("artist", rec.ArtistName),
		zap.String("venue", rec.VenueName),
		zap.Time("event_date", rec.EventDate),
	)

	res := d.enricher.EnrichRecord(ctx, *rec)
	if d.metrics != nil {
		d.metrics.ObserveOutcome(string(d.table), string(res.Outcome), string(res.Method))
	}
	return &res, nil
}

func (d *Driver) logProgress(log *zap.Logger, stats *model.RunStats, total int, start time.Time) {
	elapsed := time.Since(start)
	if elapsed <= 0 || stats.Total == 0 {
		return
	}
	rate := float64(stats.Total) / elapsed.Seconds()
	remaining := total - stats.Total
	eta := time.Duration(float64(remaining)/rate) * time.Second

	log.Info("progress",
		zap.Int("processed", stats.Total),
		zap.Int("total", total),
		zap.Int("success", stats.Success),
		zap.Float64("records_per_sec", rate),
		zap.Duration("eta", eta),
	)
}

// sleepCtx pauses for the duration unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
