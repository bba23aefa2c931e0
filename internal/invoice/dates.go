package invoice

import (
	"strings"
	"time"
)

// DefaultLocation is India Standard Time. It is a fixed zone so rendering does
// not depend on the host's tz database.
var DefaultLocation = time.FixedZone("IST", 5*60*60+30*60)

// LoadLocation resolves an IANA zone name, falling back to DefaultLocation.
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return DefaultLocation
	}
	return loc
}

// LongDate renders e.g. "18 October 2026, 02:30 pm".
func LongDate(t time.Time, loc *time.Location) string {
	t = t.In(orDefault(loc))
	return t.Format("2 January 2006, 03:04 ") + strings.ToLower(t.Format("PM"))
}

// ShortDate renders e.g. "18 Oct 2026".
func ShortDate(t time.Time, loc *time.Location) string {
	return t.In(orDefault(loc)).Format("2 Jan 2006")
}

func orDefault(loc *time.Location) *time.Location {
	if loc == nil {
		return DefaultLocation
	}
	return loc
}
