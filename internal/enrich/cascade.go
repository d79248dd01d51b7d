package enrich

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/encorenotes/setlist-cli/internal/model"
	"github.com/encorenotes/setlist-cli/pkg/setlistfm"
)

// Catalog is the slice of the setlist.fm client the resolver depends on.
type Catalog interface {
	SearchSetlists(ctx context.Context, p setlistfm.SearchParams) ([]setlistfm.Setlist, error)
	ArtistSetlists(ctx context.Context, mbid string, page int) ([]setlistfm.Setlist, error)
	SearchArtists(ctx context.Context, name string) ([]setlistfm.Artist, error)
}

// Match is a resolved candidate with its transformed setlist and the
// strategy that found it.
type Match struct {
	Candidate *setlistfm.Setlist
	Setlist   *model.Setlist
	Method    model.Method
}

// ResolveFlags records what the cascade observed on the way to its answer.
// SawError distinguishes "the catalog genuinely has nothing" from "a
// strategy failed and the record should be retried later".
type ResolveFlags struct {
	SawEmpty bool
	SawError bool
}

// Resolver runs the search strategy cascade for one record.
type Resolver struct {
	catalog Catalog
	now     func() time.Time
}

// NewResolver creates a cascade resolver over the given catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog, now: time.Now}
}

// WithNow fixes the transform timestamp for testing.
func (r *Resolver) WithNow(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve tries the strategies in fixed order and stops at the first one
// that yields an exact-date match with a non-empty transformed setlist.
// A strategy failure is contained: the cascade proceeds to the next
// strategy and the failure is reported through the flags.
func (r *Resolver) Resolve(ctx context.Context, rec model.SourceRecord) (*Match, ResolveFlags) {
	var flags ResolveFlags
	log := zap.L().With(
		zap.String("component", "enrich.cascade"),
		zap.String("record", rec.ID),
		zap.String("artist", rec.ArtistName),
	)
	date := FormatEventDate(rec.EventDate)

	// Strategy 1: general search by artist name and date only. Venue is
	// deliberately left out of the query; ambiguous venue names
	// over-constrain the search.
	candidates, err := noneOnNotFound(r.catalog.SearchSetlists(ctx, setlistfm.SearchParams{
		ArtistName: rec.ArtistName,
		Date:       date,
	}))
	if err != nil {
		flags.SawError = true
		log.Warn("general search failed", zap.Error(err))
	}
	if m := r.evaluate(candidates, rec, model.MethodExactDate, &flags); m != nil {
		return m, flags
	}

	// Strategy 2: resolve the artist to a stable MBID and scan the first
	// page of their catalog. Only the first returned artist is considered.
	artists, err := noneOnNotFound(r.catalog.SearchArtists(ctx, rec.ArtistName))
	if err != nil {
		flags.SawError = true
		log.Warn("artist search failed", zap.Error(err))
	}
	if len(artists) > 0 && artists[0].MBID != "" {
		mbid := artists[0].MBID
		setlists, err := noneOnNotFound(r.catalog.ArtistSetlists(ctx, mbid, 1))
		if err != nil {
			flags.SawError = true
			log.Warn("artist setlists fetch failed", zap.String("mbid", mbid), zap.Error(err))
		}
		if m := r.evaluate(setlists, rec, model.MethodArtistExactDate, &flags); m != nil {
			return m, flags
		}
	} else {
		log.Debug("no artist mbid found")
	}

	// Strategy 3: venue fallback. Catches package and co-headliner shows
	// where the record's artist name does not match the stored headliner.
	candidates, err = noneOnNotFound(r.catalog.SearchSetlists(ctx, setlistfm.SearchParams{
		VenueName: rec.VenueName,
		Date:      date,
	}))
	if err != nil {
		flags.SawError = true
		log.Warn("venue fallback search failed", zap.Error(err))
	}
	if m := r.evaluate(candidates, rec, model.MethodVenueFallback, &flags); m != nil {
		return m, flags
	}

	return nil, flags
}

// evaluate applies the date reconciler to a candidate list and transforms
// the winner. Zero-song transforms are remembered as empty matches and the
// cascade moves on.
func (r *Resolver) evaluate(candidates []setlistfm.Setlist, rec model.SourceRecord, method model.Method, flags *ResolveFlags) *Match {
	if len(candidates) == 0 {
		return nil
	}
	cand := MatchByDate(candidates, rec.EventDate)
	if cand == nil {
		return nil
	}
	setlist := TransformSetlist(cand, r.now())
	if setlist.SongCount == 0 {
		flags.SawEmpty = true
		return nil
	}
	return &Match{Candidate: cand, Setlist: setlist, Method: method}
}

// noneOnNotFound maps the catalog's 404 convention to an empty result.
func noneOnNotFound[T any](items []T, err error) ([]T, error) {
	if err != nil && errors.Is(err, setlistfm.ErrNotFound) {
		return nil, nil
	}
	return items, err
}
