package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/encorenotes/setlist-cli/internal/model"
	"github.com/encorenotes/setlist-cli/internal/store"
	"github.com/encorenotes/setlist-cli/pkg/setlistfm"
)

// mockCatalog implements Catalog with per-endpoint hooks and call counts.
// Endpoints without a hook answer like a 404.
type mockCatalog struct {
	searchFn   func(p setlistfm.SearchParams) ([]setlistfm.Setlist, error)
	artistsFn  func(name string) ([]setlistfm.Artist, error)
	setlistsFn func(mbid string, page int) ([]setlistfm.Setlist, error)

	searchCalls  int
	artistCalls  int
	setlistCalls int
	searchParams []setlistfm.SearchParams
}

func (m *mockCatalog) SearchSetlists(_ context.Context, p setlistfm.SearchParams) ([]setlistfm.Setlist, error) {
	m.searchCalls++
	m.searchParams = append(m.searchParams, p)
	if m.searchFn == nil {
		return nil, setlistfm.ErrNotFound
	}
	return m.searchFn(p)
}

func (m *mockCatalog) SearchArtists(_ context.Context, name string) ([]setlistfm.Artist, error) {
	m.artistCalls++
	if m.artistsFn == nil {
		return nil, setlistfm.ErrNotFound
	}
	return m.artistsFn(name)
}

func (m *mockCatalog) ArtistSetlists(_ context.Context, mbid string, page int) ([]setlistfm.Setlist, error) {
	m.setlistCalls++
	if m.setlistsFn == nil {
		return nil, setlistfm.ErrNotFound
	}
	return m.setlistsFn(mbid, page)
}

func (m *mockCatalog) totalCalls() int {
	return m.searchCalls + m.artistCalls + m.setlistCalls
}

// mockWriter implements StateWriter, recording what was persisted.
type mockWriter struct {
	enriched    map[string]*model.Setlist
	checked     map[string]bool
	enrichErr   error
	checkErr    error
	enrichCalls int
	checkCalls  int
	lastExtID   string
	lastExtURL  string
}

func newMockWriter() *mockWriter {
	return &mockWriter{
		enriched: make(map[string]*model.Setlist),
		checked:  make(map[string]bool),
	}
}

func (w *mockWriter) MarkEnriched(_ context.Context, id string, setlist *model.Setlist, externalID, externalURL string) error {
	w.enrichCalls++
	if w.enrichErr != nil {
		return w.enrichErr
	}
	w.enriched[id] = setlist
	w.lastExtID = externalID
	w.lastExtURL = externalURL
	return nil
}

func (w *mockWriter) MarkChecked(_ context.Context, id string) error {
	w.checkCalls++
	if w.checkErr != nil {
		return w.checkErr
	}
	w.checked[id] = true
	return nil
}

// testCandidate builds a catalog setlist with the given date and one set
// per entry in setSizes.
func testCandidate(id, date string, setSizes ...int) setlistfm.Setlist {
	s := setlistfm.Setlist{
		ID:        id,
		EventDate: date,
		URL:       "https://www.setlist.fm/setlist/" + id,
		Artist:    setlistfm.Artist{MBID: "mbid-" + id, Name: "Test Artist"},
		Venue: setlistfm.Venue{
			Name: "Test Venue",
			City: &setlistfm.City{Name: "Testville", State: "New York", Country: setlistfm.Country{Name: "United States"}},
		},
	}
	song := 0
	for _, size := range setSizes {
		var set setlistfm.Set
		for i := 0; i < size; i++ {
			song++
			set.Song = append(set.Song, setlistfm.SongEntry{Name: fmt.Sprintf("Song %d", song)})
		}
		s.Sets.Set = append(s.Sets.Set, set)
	}
	return s
}

func testRecord(id string, date time.Time) model.SourceRecord {
	return model.SourceRecord{
		ID:         id,
		ArtistName: "Test Artist",
		VenueName:  "Test Venue",
		EventDate:  date,
		Status:     model.StatusUnprocessed,
	}
}

// memStore is an in-memory RecordStore for driver tests.
type memStore struct {
	records    map[string]*model.SourceRecord
	listCalls  int
	countCalls int
}

func newMemStore(records ...model.SourceRecord) *memStore {
	s := &memStore{records: make(map[string]*model.SourceRecord)}
	for i := range records {
		rec := records[i]
		s.records[rec.ID] = &rec
	}
	return s
}

func (s *memStore) unprocessedBefore(before time.Time) []model.SourceRecord {
	var out []model.SourceRecord
	for _, rec := range s.records {
		if rec.Status == model.StatusUnprocessed && rec.EventDate.Before(before) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.After(out[j].EventDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *memStore) CountUnprocessed(_ context.Context, before time.Time) (int, error) {
	s.countCalls++
	return len(s.unprocessedBefore(before)), nil
}

func (s *memStore) ListUnprocessed(_ context.Context, before time.Time, cur store.Cursor, limit int) ([]model.SourceRecord, error) {
	s.listCalls++
	var out []model.SourceRecord
	for _, rec := range s.unprocessedBefore(before) {
		if !cur.Zero() {
			afterCursor := rec.EventDate.Before(cur.EventDate) ||
				(rec.EventDate.Equal(cur.EventDate) && rec.ID < cur.ID)
			if !afterCursor {
				continue
			}
		}
		out = append(out, rec)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) FindByArtistVenue(_ context.Context, artist, venue string) (*model.SourceRecord, error) {
	var best *model.SourceRecord
	for _, rec := range s.records {
		if !strings.Contains(strings.ToLower(rec.ArtistName), strings.ToLower(artist)) {
			continue
		}
		if !strings.Contains(strings.ToLower(rec.VenueName), strings.ToLower(venue)) {
			continue
		}
		if best == nil || rec.EventDate.After(best.EventDate) {
			best = rec
		}
	}
	if best == nil {
		return nil, store.ErrRecordNotFound
	}
	out := *best
	return &out, nil
}

func (s *memStore) MarkEnriched(_ context.Context, id string, setlist *model.Setlist, externalID, externalURL string) error {
	rec, ok := s.records[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	now := time.Now().UTC()
	rec.Status = model.StatusEnriched
	rec.SetlistFMID = externalID
	rec.SetlistFMURL = externalURL
	rec.SetlistSource = setlist.Source
	rec.SongCount = setlist.SongCount
	rec.SetlistUpdated = &now
	return nil
}

func (s *memStore) MarkChecked(_ context.Context, id string) error {
	rec, ok := s.records[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	now := time.Now().UTC()
	rec.Status = model.StatusChecked
	rec.SetlistUpdated = &now
	return nil
}

func (s *memStore) InsertRecord(_ context.Context, rec model.SourceRecord) error {
	r := rec
	s.records[rec.ID] = &r
	return nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }
