package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/encorenotes/setlist-cli/internal/model"
)

// SQLiteStore implements RecordStore using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	table Table
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL
// mode. The table parameter selects the source table to operate on.
func NewSQLite(dsn string, table Table) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, table: table}, nil
}

// Dates are stored as RFC3339 UTC text so lexicographic comparison in SQL
// matches chronological order.
const sqliteTimeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

const sqliteMigrationTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id                   TEXT PRIMARY KEY,
	artist_name          TEXT NOT NULL,
	venue_name           TEXT NOT NULL,
	city                 TEXT,
	state                TEXT,
	event_date           TEXT NOT NULL,
	enrichment_status    TEXT NOT NULL DEFAULT 'unprocessed',
	setlist              TEXT,
	setlist_fm_id        TEXT,
	setlist_fm_url       TEXT,
	setlist_source       TEXT,
	setlist_song_count   INTEGER,
	setlist_last_updated TEXT,
	created_at           TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at           TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_status_date ON %[1]s(enrichment_status, event_date);
CREATE INDEX IF NOT EXISTS idx_%[1]s_artist ON %[1]s(artist_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(sqliteMigrationTemplate, s.table))
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CountUnprocessed(ctx context.Context, before time.Time) (int, error) {
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE event_date < ? AND enrichment_status = ?`,
		s.table,
	)
	var n int
	err := s.db.QueryRowContext(ctx, query, formatTime(before), string(model.StatusUnprocessed)).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count unprocessed")
	}
	return n, nil
}

func (s *SQLiteStore) ListUnprocessed(ctx context.Context, before time.Time, cur Cursor, limit int) ([]model.SourceRecord, error) {
	query := fmt.Sprintf(
		`SELECT id, artist_name, venue_name, city, state, event_date, enrichment_status
		 FROM %s WHERE event_date < ? AND enrichment_status = ?`,
		s.table,
	)
	args := []any{formatTime(before), string(model.StatusUnprocessed)}

	if !cur.Zero() {
		query += ` AND (event_date < ? OR (event_date = ? AND id < ?))`
		curDate := formatTime(cur.EventDate)
		args = append(args, curDate, curDate, cur.ID)
	}

	query += ` ORDER BY event_date DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unprocessed")
	}
	defer rows.Close()

	var records []model.SourceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list unprocessed iterate")
}

func (s *SQLiteStore) FindByArtistVenue(ctx context.Context, artist, venue string) (*model.SourceRecord, error) {
	query := fmt.Sprintf(
		`SELECT id, artist_name, venue_name, city, state, event_date, enrichment_status
		 FROM %s WHERE artist_name LIKE ? AND venue_name LIKE ?
		 ORDER BY event_date DESC LIMIT 1`,
		s.table,
	)
	rows, err := s.db.QueryContext(ctx, query, "%"+artist+"%", "%"+venue+"%")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find by artist/venue")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, eris.Wrap(err, "sqlite: find by artist/venue iterate")
		}
		return nil, ErrRecordNotFound
	}
	rec, err := scanRecord(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) MarkEnriched(ctx context.Context, id string, setlist *model.Setlist, externalID, externalURL string) error {
	payload, err := json.Marshal(setlist)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal setlist")
	}
	now := formatTime(time.Now())

	query := fmt.Sprintf(
		`UPDATE %s SET setlist = ?, setlist_fm_id = ?, setlist_fm_url = ?,
		 setlist_source = ?, setlist_song_count = ?, enrichment_status = ?,
		 setlist_last_updated = ?, updated_at = ? WHERE id = ?`,
		s.table,
	)
	res, err := s.db.ExecContext(ctx, query,
		string(payload), externalID, externalURL,
		setlist.Source, setlist.SongCount, string(model.StatusEnriched),
		now, now, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark enriched %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) MarkChecked(ctx context.Context, id string) error {
	now := formatTime(time.Now())
	query := fmt.Sprintf(
		`UPDATE %s SET enrichment_status = ?, setlist_last_updated = ?, updated_at = ? WHERE id = ?`,
		s.table,
	)
	res, err := s.db.ExecContext(ctx, query, string(model.StatusChecked), now, now, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark checked %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) InsertRecord(ctx context.Context, rec model.SourceRecord) error {
	status := rec.Status
	if status == "" {
		status = model.StatusUnprocessed
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, artist_name, venue_name, city, state, event_date, enrichment_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.table,
	)
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.ArtistName, rec.VenueName, rec.City, rec.State,
		formatTime(rec.EventDate), string(status),
	)
	return eris.Wrapf(err, "sqlite: insert record %s", rec.ID)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (model.SourceRecord, error) {
	var rec model.SourceRecord
	var city, state sql.NullString
	var eventDate, status string

	err := row.Scan(&rec.ID, &rec.ArtistName, &rec.VenueName, &city, &state, &eventDate, &status)
	if err != nil {
		return rec, eris.Wrap(err, "sqlite: scan record")
	}

	rec.City = city.String
	rec.State = state.String
	rec.Status = model.EnrichmentStatus(status)
	rec.EventDate, err = time.Parse(sqliteTimeLayout, eventDate)
	if err != nil {
		return rec, eris.Wrapf(err, "sqlite: parse event date %q", eventDate)
	}
	return rec, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRecordNotFound, "sqlite: record %s", id)
	}
	return nil
}
