// Package store abstracts the source record store. The same engine drives
// two near-identical tables (performances and reviews); the table is a
// constructor parameter rather than a second copy of the pipeline.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/encorenotes/setlist-cli/internal/model"
)

// ErrRecordNotFound is returned by lookups that match nothing.
var ErrRecordNotFound = eris.New("store: record not found")

// Table selects which source table a store instance operates on.
type Table string

const (
	TablePerformances Table = "performance_records"
	TableReviews      Table = "review_records"
)

// ParseTable maps the CLI spelling to a Table.
func ParseTable(s string) (Table, error) {
	switch s {
	case "performances":
		return TablePerformances, nil
	case "reviews":
		return TableReviews, nil
	default:
		return "", eris.Errorf("store: unknown record table %q (want performances or reviews)", s)
	}
}

// Cursor is a keyset paging position over (event_date DESC, id DESC).
// Keyset paging keeps the window stable while enriched rows drop out of
// the unprocessed filter mid-run; a row offset would skip records.
type Cursor struct {
	EventDate time.Time
	ID        string
}

// Zero reports whether the cursor is at the start of the result set.
func (c Cursor) Zero() bool {
	return c.ID == "" && c.EventDate.IsZero()
}

// After positions the cursor just past the given record.
func After(rec model.SourceRecord) Cursor {
	return Cursor{EventDate: rec.EventDate, ID: rec.ID}
}

// RecordStore is the source record store seen by the enrichment engine.
// The engine reads identity fields and writes only enrichment fields; it
// never deletes records. InsertRecord exists for seeding and tests.
type RecordStore interface {
	// CountUnprocessed counts unprocessed records whose event_date is
	// before the given time.
	CountUnprocessed(ctx context.Context, before time.Time) (int, error)

	// ListUnprocessed returns the next page of unprocessed past records,
	// newest event first, strictly after the cursor position.
	ListUnprocessed(ctx context.Context, before time.Time, cur Cursor, limit int) ([]model.SourceRecord, error)

	// FindByArtistVenue finds the most recent record matching both names
	// case-insensitively as substrings. Returns ErrRecordNotFound when
	// nothing matches.
	FindByArtistVenue(ctx context.Context, artist, venue string) (*model.SourceRecord, error)

	// MarkEnriched attaches the setlist payload and flips the record to
	// enriched in a single update keyed by id. Idempotent.
	MarkEnriched(ctx context.Context, id string, setlist *model.Setlist, externalID, externalURL string) error

	// MarkChecked flips the record to checked_no_match with a timestamp
	// and no setlist payload. Idempotent.
	MarkChecked(ctx context.Context, id string) error

	// InsertRecord adds a source record.
	InsertRecord(ctx context.Context, rec model.SourceRecord) error

	Migrate(ctx context.Context) error
	Close() error
}
