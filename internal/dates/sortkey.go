package dates

import (
	"strconv"
	"strings"
	"time"
)

// dateSortKey returns a key that orders ISO and partial-ISO date strings
// chronologically, with partial dates sorting before more specific dates in
// the same period ("2004" < "2004-06" < "2004-06-15" < "2004-06-15T10:00:00")
// and the empty string sorting last.
func dateSortKey(value string) string {
	if value == "" {
		return "9999-99-99T99:99:99"
	}
	value = strings.TrimSuffix(value, "Z")
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == '-' || r == ':' || r == 'T'
	})
	for len(parts) < 6 {
		parts = append(parts, "00")
	}
	return strings.Join(parts[:3], "-") + "T" + strings.Join(parts[3:6], ":")
}

// preferSpecificDates drops a candidate when another candidate in the same
// slice is strictly longer and has it as a prefix (e.g. "2004" is dropped in
// favor of "2004-06-15"). Candidates that merely share a year with a
// different month/day are both kept.
func preferSpecificDates(dates []candidate) []candidate {
	if len(dates) <= 1 {
		return dates
	}
	var out []candidate
	for _, d := range dates {
		dominated := false
		for _, other := range dates {
			if other.Value != d.Value && len(other.Value) > len(d.Value) && strings.HasPrefix(other.Value, d.Value) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, d)
		}
	}
	return out
}

// parseYear extracts the calendar year from a full or partial ISO date
// string.
func parseYear(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	if strings.Contains(value, "T") {
		if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
			return t.Year(), true
		}
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t.Year(), true
		}
	}
	if len(value) >= 4 {
		if y, err := strconv.Atoi(value[:4]); err == nil {
			return y, true
		}
	}
	return 0, false
}
