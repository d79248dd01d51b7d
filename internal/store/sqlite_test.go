package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorenotes/setlist-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T, table Table) *SQLiteStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dsn, table)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedRecord(t *testing.T, s *SQLiteStore, id string, date time.Time) {
	t.Helper()
	err := s.InsertRecord(context.Background(), model.SourceRecord{
		ID:         id,
		ArtistName: "Phish",
		VenueName:  "Madison Square Garden",
		City:       "New York",
		State:      "NY",
		EventDate:  date,
	})
	require.NoError(t, err)
}

func TestSQLiteCountUnprocessed(t *testing.T) {
	s := newTestSQLiteStore(t, TablePerformances)
	ctx := context.Background()
	now := time.Now()

	seedRecord(t, s, "past-1", now.AddDate(0, 0, -10))
	seedRecord(t, s, "past-2", now.AddDate(0, 0, -5))
	seedRecord(t, s, "future", now.AddDate(0, 0, 5))

	n, err := s.CountUnprocessed(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteListUnprocessedFilters(t *testing.T) {
	s := newTestSQLiteStore(t, TablePerformances)
	ctx := context.Background()
	now := time.Now()

	seedRecord(t, s, "open", now.AddDate(0, 0, -10))
	seedRecord(t, s, "future", now.AddDate(0, 0, 5))
	seedRecord(t, s, "done", now.AddDate(0, 0, -20))
	seedRecord(t, s, "checked", now.AddDate(0, 0, -30))

	require.NoError(t, s.MarkEnriched(ctx, "done", &model.Setlist{Source: "setlist.fm"}, "x", "u"))
	require.NoError(t, s.MarkChecked(ctx, "checked"))

	recs, err := s.ListUnprocessed(ctx, now, Cursor{}, 100)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "open", recs[0].ID)
	assert.Equal(t, model.StatusUnprocessed, recs[0].Status)
	assert.Equal(t, "New York", recs[0].City)
}

func TestSQLiteListUnprocessedKeysetPaging(t *testing.T) {
	s := newTestSQLiteStore(t, TablePerformances)
	ctx := context.Background()
	now := time.Now()

	// Two records share an event date so paging has to break ties on id.
	seedRecord(t, s, "a", now.AddDate(0, 0, -1))
	seedRecord(t, s, "b", now.AddDate(0, 0, -2))
	seedRecord(t, s, "c", now.AddDate(0, 0, -2))
	seedRecord(t, s, "d", now.AddDate(0, 0, -3))

	page1, err := s.ListUnprocessed(ctx, now, Cursor{}, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "a", page1[0].ID)
	assert.Equal(t, "c", page1[1].ID)

	page2, err := s.ListUnprocessed(ctx, now, After(page1[1]), 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "b", page2[0].ID)
	assert.Equal(t, "d", page2[1].ID)

	page3, err := s.ListUnprocessed(ctx, now, After(page2[1]), 2)
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func TestSQLiteMarkEnriched(t *testing.T) {
	s := newTestSQLiteStore(t, TablePerformances)
	ctx := context.Background()

	seedRecord(t, s, "rec-1", time.Now().AddDate(0, 0, -1))

	setlist := &model.Setlist{
		SetlistFMID: "abc123",
		URL:         "https://www.setlist.fm/setlist/abc123",
		EventDate:   "31-12-2023",
		Artist:      model.SetlistArtist{Name: "Phish"},
		Songs: []model.Song{
			{Name: "Tweezer", Position: 1, SetNumber: 1, SetName: "Set 1"},
		},
		SongCount: 1,
		Source:    "setlist.fm",
	}
	require.NoError(t, s.MarkEnriched(ctx, "rec-1", setlist, "abc123", setlist.URL))

	var status, payload, extID, extURL string
	var songCount int
	err := s.db.QueryRow(
		`SELECT enrichment_status, setlist, setlist_fm_id, setlist_fm_url, setlist_song_count
		 FROM performance_records WHERE id = ?`, "rec-1",
	).Scan(&status, &payload, &extID, &extURL, &songCount)
	require.NoError(t, err)

	assert.Equal(t, string(model.StatusEnriched), status)
	assert.Equal(t, "abc123", extID)
	assert.Equal(t, "https://www.setlist.fm/setlist/abc123", extURL)
	assert.Equal(t, 1, songCount)

	var stored model.Setlist
	require.NoError(t, json.Unmarshal([]byte(payload), &stored))
	assert.Equal(t, "Phish", stored.Artist.Name)
	assert.Equal(t, "Tweezer", stored.Songs[0].Name)
}

func TestSQLiteMarkEnrichedMissingRecord(t *testing.T) {
	s := newTestSQLiteStore(t, TablePerformances)

	err := s.MarkEnriched(context.Background(), "nope", &model.Setlist{}, "x", "u")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSQLiteMarkChecked(t *testing.T) {
	s := newTestSQLiteStore(t, TablePerformances)
	ctx := context.Background()

	seedRecord(t, s, "rec-1", time.Now().AddDate(0, 0, -1))
	require.NoError(t, s.MarkChecked(ctx, "rec-1"))

	var status string
	var payload any
	err := s.db.QueryRow(
		`SELECT enrichment_status, setlist FROM performance_records WHERE id = ?`, "rec-1",
	).Scan(&status, &payload)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusChecked), status)
	assert.Nil(t, payload)

	assert.ErrorIs(t, s.MarkChecked(ctx, "missing"), ErrRecordNotFound)
}

func TestSQLiteFindByArtistVenue(t *testing.T) {
	s := newTestSQLiteStore(t, TableReviews)
	ctx := context.Background()
	now := time.Now()

	seedRecord(t, s, "older", now.AddDate(0, 0, -20))
	seedRecord(t, s, "newer", now.AddDate(0, 0, -2))

	rec, err := s.FindByArtistVenue(ctx, "phish", "square garden")
	require.NoError(t, err)
	assert.Equal(t, "newer", rec.ID)

	_, err = s.FindByArtistVenue(ctx, "nobody", "nowhere")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSQLiteTablesAreIndependent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shared.db")

	perf, err := NewSQLite(dsn, TablePerformances)
	require.NoError(t, err)
	defer perf.Close()
	require.NoError(t, perf.Migrate(context.Background()))

	rev, err := NewSQLite(dsn, TableReviews)
	require.NoError(t, err)
	defer rev.Close()
	require.NoError(t, rev.Migrate(context.Background()))

	seedRecord(t, perf, "perf-1", time.Now().AddDate(0, 0, -1))

	n, err := rev.CountUnprocessed(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseTable(t *testing.T) {
	got, err := ParseTable("performances")
	require.NoError(t, err)
	assert.Equal(t, TablePerformances, got)

	got, err = ParseTable("reviews")
	require.NoError(t, err)
	assert.Equal(t, TableReviews, got)

	_, err = ParseTable("bogus")
	assert.Error(t, err)
}
