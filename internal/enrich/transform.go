package enrich

import (
	"fmt"
	"time"

	"github.com/encorenotes/setlist-cli/internal/model"
	"github.com/encorenotes/setlist-cli/pkg/setlistfm"
)

// setlistSource labels where the enrichment payload came from.
const setlistSource = "setlist.fm"

// setDisplayName picks a set's display name: explicit name, then
// "Encore {n}" for encore sets, then "Set {i}" by 1-based set index.
func setDisplayName(s setlistfm.Set, index int) string {
	if s.Name != "" {
		return s.Name
	}
	if s.Encore > 0 {
		return fmt.Sprintf("Encore %d", s.Encore)
	}
	return fmt.Sprintf("Set %d", index+1)
}

// TransformSetlist flattens a catalog setlist into the canonical form.
// Song positions increase globally from 1 and never reset between sets.
// A zero-song result is valid output here; the caller classifies it as an
// empty match rather than a success.
func TransformSetlist(src *setlistfm.Setlist, now time.Time) *model.Setlist {
	out := &model.Setlist{
		SetlistFMID: src.ID,
		VersionID:   src.VersionID,
		URL:         src.URL,
		EventDate:   src.EventDate,
		Artist: model.SetlistArtist{
			Name: src.Artist.Name,
			MBID: src.Artist.MBID,
		},
		Venue: model.SetlistVenue{
			Name: src.Venue.Name,
		},
		Info:        src.Info,
		Source:      setlistSource,
		LastUpdated: now.UTC(),
	}

	if src.Venue.City != nil {
		out.Venue.City = src.Venue.City.Name
		out.Venue.State = src.Venue.City.State
		out.Venue.Country = src.Venue.City.Country.Name
	}
	if src.Tour != nil {
		out.Tour = src.Tour.Name
	}

	position := 0
	for i, set := range src.Sets.Set {
		setName := setDisplayName(set, i)
		for _, entry := range set.Song {
			position++
			song := model.Song{
				Name:      entry.Name,
				Position:  position,
				SetNumber: i + 1,
				SetName:   setName,
				Info:      entry.Info,
				IsTape:    entry.Tape,
			}
			if entry.Cover != nil {
				song.IsCover = true
				song.CoverArtist = entry.Cover.Name
				song.CoverMBID = entry.Cover.MBID
			}
			out.Songs = append(out.Songs, song)
		}
	}

	out.SongCount = position
	return out
}
