// Package setlistfm is a minimal client for the setlist.fm REST API.
// All calls are paced through a shared limiter so the whole process stays
// inside the catalog's per-second quota.
package setlistfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/encorenotes/setlist-cli/internal/resilience"
)

// DefaultBaseURL is the production catalog endpoint.
const DefaultBaseURL = "https://api.setlist.fm/rest/1.0"

// DefaultRateInterval is the minimum spacing between catalog calls.
const DefaultRateInterval = time.Second

// ErrNotFound is returned when the catalog answers 404. The API uses 404
// for "no results", so callers treat it as an empty result, not a failure.
var ErrNotFound = eris.New("setlistfm: not found")

// Pacer blocks until the next external call is allowed. *rate.Limiter
// satisfies it; tests substitute a recording fake.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Client calls the setlist.fm API. The enrichment pipeline issues one
// call at a time, so no internal locking beyond the pacer is needed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pacer      Pacer
	retry      resilience.RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithPacer replaces the default rate limiter.
func WithPacer(p Pacer) Option {
	return func(c *Client) { c.pacer = p }
}

// WithRateInterval sets the minimum spacing between calls.
func WithRateInterval(d time.Duration) Option {
	return func(c *Client) { c.pacer = rate.NewLimiter(rate.Every(d), 1) }
}

// WithRetry overrides the retry policy for transient catalog failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a catalog client with the default 1 req/s pacing.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pacer:      rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchParams are the query parameters for the setlist search endpoint.
// Empty fields are omitted from the query.
type SearchParams struct {
	ArtistName string
	Date       string // dd-MM-yyyy
	VenueName  string
	CityName   string
	StateCode  string
}

// SearchSetlists queries the general setlist search.
func (c *Client) SearchSetlists(ctx context.Context, p SearchParams) ([]Setlist, error) {
	q := url.Values{}
	if p.ArtistName != "" {
		q.Set("artistName", p.ArtistName)
	}
	if p.Date != "" {
		q.Set("date", p.Date)
	}
	if p.VenueName != "" {
		q.Set("venueName", p.VenueName)
	}
	if p.CityName != "" {
		q.Set("cityName", p.CityName)
	}
	if p.StateCode != "" {
		q.Set("stateCode", p.StateCode)
	}

	body, err := c.get(ctx, "/search/setlists", q)
	if err != nil {
		return nil, err
	}

	var resp setlistsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "setlistfm: parse search response")
	}
	return resp.Setlist, nil
}

// ArtistSetlists fetches one page of an artist's setlists by MBID.
func (c *Client) ArtistSetlists(ctx context.Context, mbid string, page int) ([]Setlist, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{"p": {strconv.Itoa(page)}}

	body, err := c.get(ctx, "/artist/"+mbid+"/setlists", q)
	if err != nil {
		return nil, err
	}

	var resp setlistsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "setlistfm: parse artist setlists")
	}
	return resp.Setlist, nil
}

// SearchArtists searches artists by name, best matches first.
func (c *Client) SearchArtists(ctx context.Context, name string) ([]Artist, error) {
	q := url.Values{"artistName": {name}}

	body, err := c.get(ctx, "/search/artists", q)
	if err != nil {
		return nil, err
	}

	var resp artistsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "setlistfm: parse artist search")
	}
	return resp.Artist, nil
}

// get waits on the pacer, issues the request, and maps 404 to ErrNotFound.
// Transient failures (network, 5xx, 429) are retried; each attempt waits
// on the pacer again so retries stay inside the quota.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if enc := q.Encode(); enc != "" {
		reqURL += "?" + enc
	}

	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(path)
	}

	return resilience.Do(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "setlistfm: rate limit wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "setlistfm: build request")
		}
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "setlistfm: GET %s", path)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := eris.Errorf("setlistfm: GET %s returned status %d", path, resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "setlistfm: read body")
		}
		return body, nil
	})
}
