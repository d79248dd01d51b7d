// Package ingest loads source records into the store from CSV exports.
// This is how a backlog gets seeded before an enrichment run.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/encorenotes/setlist-cli/internal/enrich"
	"github.com/encorenotes/setlist-cli/internal/model"
	"github.com/encorenotes/setlist-cli/internal/store"
)

// Result summarizes one import.
type Result struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// requiredColumns must all appear in the CSV header. An id column is
// optional; rows without one get a generated UUID.
var requiredColumns = []string{"artist_name", "venue_name", "event_date"}

// ImportCSV reads records from r and inserts them into st. The first row
// is a header naming the columns in any order; event_date uses the same
// dd-MM-yyyy format the catalog uses. Rows that fail to parse or insert
// are logged and skipped, they do not abort the import.
func ImportCSV(ctx context.Context, r io.Reader, st store.RecordStore) (Result, error) {
	log := zap.L().With(zap.String("component", "ingest"))

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, eris.Wrap(err, "ingest: read header")
	}
	cols, err := mapColumns(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	line := 1
	for {
		if ctx.Err() != nil {
			return res, eris.Wrap(ctx.Err(), "ingest: cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return res, eris.Wrapf(err, "ingest: read row %d", line)
		}

		rec, err := parseRow(cols, row)
		if err != nil {
			log.Warn("skipping row", zap.Int("line", line), zap.Error(err))
			res.Skipped++
			continue
		}

		if err := st.InsertRecord(ctx, rec); err != nil {
			log.Warn("insert failed", zap.Int("line", line), zap.String("id", rec.ID), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Inserted++
	}

	log.Info("import complete", zap.Int("inserted", res.Inserted), zap.Int("skipped", res.Skipped))
	return res, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, eris.Errorf("ingest: header is missing column %q", name)
		}
	}
	return cols, nil
}

func parseRow(cols map[string]int, row []string) (model.SourceRecord, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := model.SourceRecord{
		ID:         field("id"),
		ArtistName: field("artist_name"),
		VenueName:  field("venue_name"),
		City:       field("city"),
		State:      field("state"),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ArtistName == "" || rec.VenueName == "" {
		return rec, eris.New("ingest: artist_name and venue_name are required")
	}

	date, err := enrich.ParseEventDate(field("event_date"))
	if err != nil {
		return rec, eris.Wrap(err, "ingest: parse event_date")
	}
	rec.EventDate = date

	return rec, nil
}
