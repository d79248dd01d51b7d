package model

import "time"

// EnrichmentStatus is the persisted tri-state flag on a source record.
type EnrichmentStatus string

const (
	// StatusUnprocessed marks a record the engine has not yet attempted.
	StatusUnprocessed EnrichmentStatus = "unprocessed"
	// StatusChecked marks a record that was processed but yielded no usable
	// setlist. Terminal: not retried without an explicit reset.
	StatusChecked EnrichmentStatus = "checked_no_match"
	// StatusEnriched marks a record with an attached setlist.
	StatusEnriched EnrichmentStatus = "enriched"
)

// SourceRecord is one performance (or review) row from the source store.
// The engine reads the identity fields and writes only enrichment fields.
type SourceRecord struct {
	ID         string           `json:"id"`
	ArtistName string           `json:"artist_name"`
	VenueName  string           `json:"venue_name"`
	City       string           `json:"city,omitempty"`
	State      string           `json:"state,omitempty"`
	EventDate  time.Time        `json:"event_date"`
	Status     EnrichmentStatus `json:"enrichment_status"`

	// Enrichment payload, populated once Status is StatusEnriched.
	SetlistFMID    string     `json:"setlist_fm_id,omitempty"`
	SetlistFMURL   string     `json:"setlist_fm_url,omitempty"`
	SetlistSource  string     `json:"setlist_source,omitempty"`
	SongCount      int        `json:"setlist_song_count,omitempty"`
	SetlistUpdated *time.Time `json:"setlist_last_updated,omitempty"`
}
