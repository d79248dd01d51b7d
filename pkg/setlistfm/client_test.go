package setlistfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorenotes/setlist-cli/internal/resilience"
)

// noopPacer never blocks. Timing-sensitive tests use the real limiter.
type noopPacer struct{}

func (noopPacer) Wait(context.Context) error { return nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key",
		WithBaseURL(srv.URL),
		WithPacer(noopPacer{}),
		WithRetry(resilience.RetryConfig{MaxAttempts: 1}),
	)
}

func TestSearchSetlists(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotAPIKey, gotAccept string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		gotAPIKey = r.Header.Get("x-api-key")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"setlist": [
				{"id": "abc123", "eventDate": "31-12-2023", "artist": {"name": "Phish"}}
			]
		}`))
	})

	sets, err := client.SearchSetlists(context.Background(), SearchParams{
		ArtistName: "Phish",
		Date:       "31-12-2023",
		VenueName:  "Madison Square Garden",
	})
	require.NoError(t, err)

	assert.Equal(t, "/search/setlists", gotPath)
	assert.Equal(t, "Phish", gotQuery["artistName"])
	assert.Equal(t, "31-12-2023", gotQuery["date"])
	assert.Equal(t, "Madison Square Garden", gotQuery["venueName"])
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "application/json", gotAccept)

	require.Len(t, sets, 1)
	assert.Equal(t, "abc123", sets[0].ID)
	assert.Equal(t, "Phish", sets[0].Artist.Name)
}

func TestSearchSetlistsOmitsEmptyParams(t *testing.T) {
	var gotQuery map[string][]string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"setlist": []}`))
	})

	_, err := client.SearchSetlists(context.Background(), SearchParams{
		ArtistName: "Phish",
		Date:       "31-12-2023",
	})
	require.NoError(t, err)

	assert.NotContains(t, gotQuery, "venueName")
	assert.NotContains(t, gotQuery, "cityName")
	assert.NotContains(t, gotQuery, "stateCode")
}

func TestSearchSetlistsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.SearchSetlists(context.Background(), SearchParams{ArtistName: "nobody"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchSetlistsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SearchSetlists(context.Background(), SearchParams{ArtistName: "Phish"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "500")
}

func TestSearchSetlistsRetriesTransient(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"setlist": [{"id": "s1"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient("key",
		WithBaseURL(srv.URL),
		WithPacer(noopPacer{}),
		WithRetry(resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			JitterFraction: -1,
		}),
	)

	sets, err := client.SearchSetlists(context.Background(), SearchParams{ArtistName: "Phish"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, sets, 1)
}

func TestSearchSetlistsDoesNotRetryClientError(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	})
	WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond})(client)

	_, err := client.SearchSetlists(context.Background(), SearchParams{ArtistName: "Phish"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestArtistSetlists(t *testing.T) {
	var gotPath, gotPage string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPage = r.URL.Query().Get("p")
		_, _ = w.Write([]byte(`{"setlist": [{"id": "s1"}, {"id": "s2"}]}`))
	})

	sets, err := client.ArtistSetlists(context.Background(), "mbid-phish", 3)
	require.NoError(t, err)

	assert.Equal(t, "/artist/mbid-phish/setlists", gotPath)
	assert.Equal(t, "3", gotPage)
	assert.Len(t, sets, 2)
}

func TestArtistSetlistsPageClamped(t *testing.T) {
	var gotPage string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("p")
		_, _ = w.Write([]byte(`{"setlist": []}`))
	})

	_, err := client.ArtistSetlists(context.Background(), "mbid", 0)
	require.NoError(t, err)
	assert.Equal(t, "1", gotPage)
}

func TestSearchArtists(t *testing.T) {
	var gotPath, gotName string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotName = r.URL.Query().Get("artistName")
		_, _ = w.Write([]byte(`{
			"artist": [
				{"mbid": "mbid-1", "name": "Phish"},
				{"mbid": "mbid-2", "name": "Phish Tribute"}
			]
		}`))
	})

	artists, err := client.SearchArtists(context.Background(), "Phish")
	require.NoError(t, err)

	assert.Equal(t, "/search/artists", gotPath)
	assert.Equal(t, "Phish", gotName)
	require.Len(t, artists, 2)
	assert.Equal(t, "mbid-1", artists[0].MBID)
}

func TestClientPacing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"setlist": []}`))
	})
	WithRateInterval(30 * time.Millisecond)(client)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.SearchSetlists(context.Background(), SearchParams{ArtistName: "Phish"})
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// First call is immediate, the next two each wait the full interval.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestClientPacingContextCancelled(t *testing.T) {
	client := NewClient("key", WithRateInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Burst of 1 is consumed here so the next wait must block, then fail.
	_ = client.pacer.Wait(context.Background())
	_, err := client.SearchSetlists(ctx, SearchParams{ArtistName: "Phish"})
	assert.Error(t, err)
}
