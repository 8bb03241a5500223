package metadata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PathDateCandidate is one date guessed from a source path's semantic
// content (folder/file names like "Xmas 2004" or "April 2010"), rather than
// a machine-formatted timestamp. This supplements the distilled spec with a
// parser implied by pipeline2/date_utils.py's confidence-tier handling but
// not present in the retrieved metadata.py (SPEC_FULL.md SUPPLEMENTED
// FEATURES #2).
type PathDateCandidate struct {
	Value      string // ISO date or partial ISO date
	Confidence string // "high", "medium", or "low"
}

var (
	reXmas      = regexp.MustCompile(`(?i)\b(?:xmas|christmas)\b.{0,10}?(\d{4})`)
	reMonthYear = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b[\s_-]+(\d{4})`)
	reBareYear  = regexp.MustCompile(`(?:^|[/_\s-])(\d{4})(?:[/_\s-]|$)`)
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

// ParsePathDate scans a source path for semantic date patterns. A path may
// contain more than one recognizable pattern (e.g. a bare year in a parent
// folder and "Xmas" in the filename); every match is returned so the date
// engine can weigh them all by confidence tier.
func ParsePathDate(path string) []PathDateCandidate {
	var out []PathDateCandidate

	if m := reXmas.FindStringSubmatch(path); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil && isSaneYear(y) {
			out = append(out, PathDateCandidate{Value: fmt.Sprintf("%04d-12-25", y), Confidence: "high"})
		}
	}
	if m := reMonthYear.FindStringSubmatch(path); m != nil {
		month := monthNumbers[strings.ToLower(m[1])]
		if y, err := strconv.Atoi(m[2]); err == nil && isSaneYear(y) && month > 0 {
			out = append(out, PathDateCandidate{Value: fmt.Sprintf("%04d-%02d", y, month), Confidence: "medium"})
		}
	}
	if m := reBareYear.FindStringSubmatch(path); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil && isSaneYear(y) {
			out = append(out, PathDateCandidate{Value: fmt.Sprintf("%04d", y), Confidence: "low"})
		}
	}
	return out
}

func isSaneYear(y int) bool {
	return y >= 1990 && y <= 2030
}
