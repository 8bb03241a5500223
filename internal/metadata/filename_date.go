package metadata

import (
	"regexp"
	"time"

	"github.com/benbc/recovery/internal/config"
)

// Patterns are tried in the fixed order from §4.1: the two timestamped forms
// before the two date-only forms, so a filename carrying both a date and a
// time is never truncated to just the date. Each regex captures the date
// digits and time digits separately so the literal "_" or "-" separator in
// the filename never has to match a literal in the time layout.
var (
	reCompactDateTime = regexp.MustCompile(`(\d{8})[_-](\d{6})`)
	reDashDateTime    = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[_-](\d{6})`)
	reCompactDate     = regexp.MustCompile(`(\d{8})`)
	reDashDate        = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
)

// ParseFilenameDate tries each pattern in §4.1's fixed order against a
// filename and returns the first one that both matches and parses to a
// calendar date with MinYear <= year <= MaxYear. ok is false if nothing matched.
func ParseFilenameDate(filename string) (t time.Time, ok bool) {
	if m := reCompactDateTime.FindStringSubmatch(filename); m != nil {
		if t, ok := combineDateTime(m[1], "20060102", m[2], "150405"); ok {
			return t, true
		}
	}
	if m := reDashDateTime.FindStringSubmatch(filename); m != nil {
		if t, ok := combineDateTime(m[1], "2006-01-02", m[2], "150405"); ok {
			return t, true
		}
	}
	if m := reCompactDate.FindStringSubmatch(filename); m != nil {
		if t, ok := parseValidDate(m[1], "20060102"); ok {
			return t, true
		}
	}
	if m := reDashDate.FindStringSubmatch(filename); m != nil {
		if t, ok := parseValidDate(m[1], "2006-01-02"); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func combineDateTime(dateStr, dateLayout, timeStr, timeLayout string) (time.Time, bool) {
	d, ok := parseValidDate(dateStr, dateLayout)
	if !ok {
		return time.Time{}, false
	}
	tm, err := time.Parse(timeLayout, timeStr)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), tm.Hour(), tm.Minute(), tm.Second(), 0, time.UTC), true
}

func parseValidDate(s, layout string) (time.Time, bool) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < config.MinYear || t.Year() > config.MaxYear {
		return time.Time{}, false
	}
	return t, true
}
