package model

import "time"

// Setlist is the canonical flattened form of a catalog setlist, persisted
// as the enrichment payload on a source record.
type Setlist struct {
	SetlistFMID string        `json:"setlist_fm_id"`
	VersionID   string        `json:"version_id,omitempty"`
	URL         string        `json:"url"`
	EventDate   string        `json:"event_date"`
	Artist      SetlistArtist `json:"artist"`
	Venue       SetlistVenue  `json:"venue"`
	Tour        string        `json:"tour,omitempty"`
	Info        string        `json:"info,omitempty"`
	Songs       []Song        `json:"songs"`
	SongCount   int           `json:"song_count"`
	Source      string        `json:"source"`
	LastUpdated time.Time     `json:"last_updated"`
}

// SetlistArtist identifies the performing artist in the external catalog.
type SetlistArtist struct {
	Name string `json:"name"`
	MBID string `json:"mbid,omitempty"`
}

// SetlistVenue locates the show.
type SetlistVenue struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Song is one performed song. Position is contiguous ascending from 1
// across all sets in document order; SetNumber is 1-based in set order.
type Song struct {
	Name        string `json:"name"`
	Position    int    `json:"position"`
	SetNumber   int    `json:"set_number"`
	SetName     string `json:"set_name"`
	IsCover     bool   `json:"is_cover,omitempty"`
	CoverArtist string `json:"cover_artist,omitempty"`
	CoverMBID   string `json:"cover_mbid,omitempty"`
	Info        string `json:"info,omitempty"`
	IsTape      bool   `json:"is_tape,omitempty"`
}
