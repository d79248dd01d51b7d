package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/encorenotes/setlist-cli/internal/model"
)

// pgPool is the slice of pgxpool.Pool the store uses. pgxmock satisfies
// it, which is how the Postgres backend is tested.
type pgPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements RecordStore using pgxpool.
type PostgresStore struct {
	pool  pgPool
	table Table
}

// NewPostgres connects a PostgresStore to the given database.
func NewPostgres(ctx context.Context, connString string, table Table) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// NewPostgresFromPool wraps an existing pool (tests).
func NewPostgresFromPool(pool pgPool, table Table) *PostgresStore {
	return &PostgresStore{pool: pool, table: table}
}

const postgresMigrationTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id                   TEXT PRIMARY KEY,
	artist_name          TEXT NOT NULL,
	venue_name           TEXT NOT NULL,
	city                 TEXT,
	state                TEXT,
	event_date           TIMESTAMPTZ NOT NULL,
	enrichment_status    TEXT NOT NULL DEFAULT 'unprocessed',
	setlist              JSONB,
	setlist_fm_id        TEXT,
	setlist_fm_url       TEXT,
	setlist_source       TEXT,
	setlist_song_count   INTEGER,
	setlist_last_updated TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_status_date ON %[1]s(enrichment_status, event_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(postgresMigrationTemplate, s.table))
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CountUnprocessed(ctx context.Context, before time.Time) (int, error) {
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE event_date < $1 AND enrichment_status = $2`,
		s.table,
	)
	var n int
	err := s.pool.QueryRow(ctx, query, before, string(model.StatusUnprocessed)).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count unprocessed")
	}
	return n, nil
}

func (s *PostgresStore) ListUnprocessed(ctx context.Context, before time.Time, cur Cursor, limit int) ([]model.SourceRecord, error) {
	query := fmt.Sprintf(
		`SELECT id, artist_name, venue_name, COALESCE(city, ''), COALESCE(state, ''), event_date, enrichment_status
		 FROM %s WHERE event_date < $1 AND enrichment_status = $2`,
		s.table,
	)
	args := []any{before, string(model.StatusUnprocessed)}

	if !cur.Zero() {
		query += ` AND (event_date, id) < ($3, $4) ORDER BY event_date DESC, id DESC LIMIT $5`
		args = append(args, cur.EventDate, cur.ID, limit)
	} else {
		query += ` ORDER BY event_date DESC, id DESC LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unprocessed")
	}
	defer rows.Close()

	var records []model.SourceRecord
	for rows.Next() {
		var rec model.SourceRecord
		var status string
		err := rows.Scan(&rec.ID, &rec.ArtistName, &rec.VenueName, &rec.City, &rec.State, &rec.EventDate, &status)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec.Status = model.EnrichmentStatus(status)
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list unprocessed iterate")
}

func (s *PostgresStore) FindByArtistVenue(ctx context.Context, artist, venue string) (*model.SourceRecord, error) {
	query := fmt.Sprintf(
		`SELECT id, artist_name, venue_name, COALESCE(city, ''), COALESCE(state, ''), event_date, enrichment_status
		 FROM %s WHERE artist_name ILIKE $1 AND venue_name ILIKE $2
		 ORDER BY event_date DESC LIMIT 1`,
		s.table,
	)
	var rec model.SourceRecord
	var status string
	err := s.pool.QueryRow(ctx, query, "%"+artist+"%", "%"+venue+"%").
		Scan(&rec.ID, &rec.ArtistName, &rec.VenueName, &rec.City, &rec.State, &rec.EventDate, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, eris.Wrap(err, "postgres: find by artist/venue")
	}
	rec.Status = model.EnrichmentStatus(status)
	return &rec, nil
}

func (s *PostgresStore) MarkEnriched(ctx context.Context, id string, setlist *model.Setlist, externalID, externalURL string) error {
	payload, err := json.Marshal(setlist)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal setlist")
	}
	now := time.Now().UTC()

	query := fmt.Sprintf(
		`UPDATE %s SET setlist = $1, setlist_fm_id = $2, setlist_fm_url = $3,
		 setlist_source = $4, setlist_song_count = $5, enrichment_status = $6,
		 setlist_last_updated = $7, updated_at = $7 WHERE id = $8`,
		s.table,
	)
	tag, err := s.pool.Exec(ctx, query,
		payload, externalID, externalURL,
		setlist.Source, setlist.SongCount, string(model.StatusEnriched),
		now, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark enriched %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRecordNotFound, "postgres: record %s", id)
	}
	return nil
}

func (s *PostgresStore) MarkChecked(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query := fmt.Sprintf(
		`UPDATE %s SET enrichment_status = $1, setlist_last_updated = $2, updated_at = $2 WHERE id = $3`,
		s.table,
	)
	tag, err := s.pool.Exec(ctx, query, string(model.StatusChecked), now, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark checked %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRecordNotFound, "postgres: record %s", id)
	}
	return nil
}

func (s *PostgresStore) InsertRecord(ctx context.Context, rec model.SourceRecord) error {
	status := rec.Status
	if status == "" {
		status = model.StatusUnprocessed
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, artist_name, venue_name, city, state, event_date, enrichment_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.table,
	)
	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.ArtistName, rec.VenueName, rec.City, rec.State,
		rec.EventDate, string(status),
	)
	return eris.Wrapf(err, "postgres: insert record %s", rec.ID)
}
