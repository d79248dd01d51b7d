package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/encorenotes/setlist-cli/internal/model"
)

// StateWriter persists enrichment outcomes back to the source store.
// Both writes are single idempotent updates keyed by record id.
type StateWriter interface {
	MarkEnriched(ctx context.Context, id string, setlist *model.Setlist, externalID, externalURL string) error
	MarkChecked(ctx context.Context, id string) error
}

// Result classifies one enrichment attempt.
type Result struct {
	Outcome   model.Outcome `json:"status"`
	Method    model.Method  `json:"method"`
	SongCount int           `json:"song_count,omitempty"`
}

// Enricher resolves and persists the setlist for a single record.
type Enricher struct {
	resolver *Resolver
	writer   StateWriter
}

// NewEnricher wires the cascade resolver to a state writer.
func NewEnricher(resolver *Resolver, writer StateWriter) *Enricher {
	return &Enricher{resolver: resolver, writer: writer}
}

// EnrichRecord runs the cascade for one record and persists the outcome.
//
// Already-enriched records are skipped without any external call. Terminal
// no-match outcomes (not_found, empty) are written via MarkChecked so the
// record leaves the unprocessed set. Transient failures, whether from the
// catalog or the store, leave the record unprocessed for a later run.
func (e *Enricher) EnrichRecord(ctx context.Context, rec model.SourceRecord) Result {
	log := zap.L().With(
		zap.String("component", "enrich.pipeline"),
		zap.String("record", rec.ID),
		zap.String("artist", rec.ArtistName),
		zap.String("venue", rec.VenueName),
	)

	if rec.Status == model.StatusEnriched {
		log.Debug("already enriched, skipping")
		return Result{Outcome: model.OutcomeSkipped, Method: model.MethodNone}
	}

	match, flags := e.resolver.Resolve(ctx, rec)

	if match != nil {
		err := e.writer.MarkEnriched(ctx, rec.ID, match.Setlist, match.Candidate.ID, match.Candidate.URL)
		if err != nil {
			log.Error("persist setlist failed", zap.Error(err))
			return Result{Outcome: model.OutcomeError, Method: model.MethodNone}
		}
		log.Info("enriched",
			zap.String("method", string(match.Method)),
			zap.Int("songs", match.Setlist.SongCount),
		)
		return Result{
			Outcome:   model.OutcomeSuccess,
			Method:    match.Method,
			SongCount: match.Setlist.SongCount,
		}
	}

	// A strategy failure without a match means the catalog answer is
	// unknown, not negative. Leave the record unprocessed for retry.
	if flags.SawError {
		log.Warn("cascade saw errors, leaving record for retry")
		return Result{Outcome: model.OutcomeError, Method: model.MethodNone}
	}

	if err := e.writer.MarkChecked(ctx, rec.ID); err != nil {
		log.Error("mark checked failed", zap.Error(err))
		return Result{Outcome: model.OutcomeError, Method: model.MethodNone}
	}

	if flags.SawEmpty {
		log.Info("date match had no songs, marked checked")
		return Result{Outcome: model.OutcomeEmpty, Method: model.MethodNone}
	}
	log.Info("no setlist found, marked checked")
	return Result{Outcome: model.OutcomeNotFound, Method: model.MethodNone}
}
