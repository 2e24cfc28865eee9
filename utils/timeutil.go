package utils

import "time"

// NewYork is the timezone all record dates are rendered in. Falls back to
// a fixed EST offset when the tz database is unavailable.
var NewYork = loadNewYork()

func loadNewYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// timestampLayouts covers the date shapes seen across RSS feeds, article
// pages and the Open Data API.
var timestampLayouts = []string{
	time.RFC1123Z,                     // RSS pubDate
	"Mon, 2 Jan 2006 15:04:05 -0700",  // RSS pubDate, unpadded day
	time.RFC3339,                      // ISO with zone or Z
	"2006-01-02T15:04:05.000Z07:00",   // SODA :updated_at
	"2006-01-02T15:04:05",             // naive ISO
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// ParseTimestamp tries each known layout in order. The second return value
// is false when nothing matches. Layouts without a zone are interpreted
// as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
