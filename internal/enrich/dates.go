package enrich

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/encorenotes/setlist-cli/pkg/setlistfm"
)

// eventDateLayout is the catalog's date convention, day first, zero padded.
const eventDateLayout = "02-01-2006"

// FormatEventDate renders a record's calendar date in the catalog's
// dd-MM-yyyy convention.
func FormatEventDate(t time.Time) string {
	return t.Format(eventDateLayout)
}

// ParseEventDate parses a catalog date string back into a calendar date.
func ParseEventDate(s string) (time.Time, error) {
	t, err := time.Parse(eventDateLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "enrich: parse event date %q", s)
	}
	return t, nil
}

// sameDay reports whether two times fall on the same calendar day,
// ignoring time of day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MatchByDate scans candidates for one whose date equals eventDate.
//
// String equality against the formatted record date is the strong match
// and wins outright: the whole list is scanned for a strong match before
// any weak (same-calendar-day) match is considered. The scan order decides
// which candidate wins when an artist played multiple ambiguous shows, so
// both passes take the first hit in list order.
func MatchByDate(candidates []setlistfm.Setlist, eventDate time.Time) *setlistfm.Setlist {
	want := FormatEventDate(eventDate)

	for i := range candidates {
		if candidates[i].EventDate == want {
			return &candidates[i]
		}
	}

	for i := range candidates {
		d, err := ParseEventDate(candidates[i].EventDate)
		if err != nil {
			continue
		}
		if sameDay(d, eventDate) {
			return &candidates[i]
		}
	}

	return nil
}
