package setlistfm

// Setlist is one setlist as returned by the catalog API.
type Setlist struct {
	ID        string `json:"id"`
	VersionID string `json:"versionId"`
	EventDate string `json:"eventDate"` // dd-MM-yyyy
	Artist    Artist `json:"artist"`
	Venue     Venue  `json:"venue"`
	Tour      *Tour  `json:"tour,omitempty"`
	Info      string `json:"info,omitempty"`
	URL       string `json:"url"`
	Sets      Sets   `json:"sets"`
}

// Artist is a catalog artist, identified by MusicBrainz id.
type Artist struct {
	MBID     string `json:"mbid"`
	Name     string `json:"name"`
	SortName string `json:"sortName,omitempty"`
}

// Venue is a catalog venue with its city hierarchy.
type Venue struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	City *City  `json:"city,omitempty"`
}

// City is a venue's city, with state and country.
type City struct {
	Name      string  `json:"name"`
	State     string  `json:"state,omitempty"`
	StateCode string  `json:"stateCode,omitempty"`
	Country   Country `json:"country"`
}

// Country is a city's country.
type Country struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// Tour names the tour a setlist belongs to.
type Tour struct {
	Name string `json:"name"`
}

// Sets wraps the nested set list. The API nests the array one level deep.
type Sets struct {
	Set []Set `json:"set"`
}

// Set is one set within a setlist. Encore is the 1-based encore number
// when the set is an encore, zero otherwise.
type Set struct {
	Name   string      `json:"name,omitempty"`
	Encore int         `json:"encore,omitempty"`
	Song   []SongEntry `json:"song"`
}

// SongEntry is one performed song within a set.
type SongEntry struct {
	Name  string  `json:"name"`
	Info  string  `json:"info,omitempty"`
	Tape  bool    `json:"tape,omitempty"`
	Cover *Artist `json:"cover,omitempty"`
}

// setlistsResponse is the envelope for the setlist search and artist
// setlist endpoints.
type setlistsResponse struct {
	Type         string    `json:"type,omitempty"`
	ItemsPerPage int       `json:"itemsPerPage,omitempty"`
	Page         int       `json:"page,omitempty"`
	Total        int       `json:"total,omitempty"`
	Setlist      []Setlist `json:"setlist"`
}

// artistsResponse is the envelope for the artist search endpoint.
type artistsResponse struct {
	Artist []Artist `json:"artist"`
}
