package model

// Outcome classifies one enrichment attempt.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not_found"
	OutcomeEmpty    Outcome = "empty"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeError    Outcome = "error"
)

// Method names the search strategy that produced a successful match.
type Method string

const (
	MethodExactDate       Method = "exact_date"
	MethodArtistExactDate Method = "artist_exact_date"
	MethodVenueFallback   Method = "venue_fallback"
	MethodNone            Method = "none"
)

// RunStats aggregates outcomes over a backfill run, with success broken
// down by the strategy that matched.
type RunStats struct {
	Total    int `json:"total"`
	Success  int `json:"success"`
	NotFound int `json:"not_found"`
	Empty    int `json:"empty"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`

	SuccessExactDate     int `json:"success_exact_date"`
	SuccessArtistCatalog int `json:"success_artist_exact_date"`
	SuccessVenueFallback int `json:"success_venue_fallback"`
}

// Add records one outcome.
func (s *RunStats) Add(outcome Outcome, method Method) {
	s.Total++
	switch outcome {
	case OutcomeSuccess:
		s.Success++
		switch method {
		case MethodExactDate:
			s.SuccessExactDate++
		case MethodArtistExactDate:
			s.SuccessArtistCatalog++
		case MethodVenueFallback:
			s.SuccessVenueFallback++
		}
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeEmpty:
		s.Empty++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Errors++
	}
}

// SuccessRate returns the fraction of processed records enriched, 0..1.
func (s *RunStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total)
}
