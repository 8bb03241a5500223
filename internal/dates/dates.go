// Package dates derives a single best date for a cluster or singleton from
// every date-ish fact recorded about its members (§4.10, C10).
package dates

import (
	"database/sql"
	"sort"

	"github.com/benbc/recovery/internal/metadata"
	"github.com/benbc/recovery/internal/store"
)

// confidenceTiers is the priority order candidates are chosen from: the
// first non-empty tier wins.
var confidenceTiers = []string{"high", "medium", "low"}

// candidate is one usable date fact together with where it came from.
type candidate struct {
	Value      string
	SourceType string
}

// Sources holds every usable date candidate for a photo-id set, bucketed by
// confidence tier.
type Sources struct {
	High   []candidate
	Medium []candidate
	Low    []candidate
}

func (s Sources) tier(name string) []candidate {
	switch name {
	case "high":
		return s.High
	case "medium":
		return s.Medium
	default:
		return s.Low
	}
}

// Result is the derived date for a group or singleton (§3 DateResult).
type Result struct {
	Value         string // empty if no usable date was found
	Confidence    string // "high", "medium", "low", or "" if Value is empty
	SourceType    string
	HasConflict   bool
	ConflictDates []string
}

// GetAllPhotoIDsForGroup returns every photo id that should contribute date
// sources for photoID: itself, every photo sharing its composite group (if
// any), and every member of each of those photos' primary group — including
// members a group rule later rejected, since a rejected member may carry the
// only EXIF date in the group.
func GetAllPhotoIDsForGroup(db *sql.DB, photoID string) (map[string]bool, error) {
	result := map[string]bool{photoID: true}

	if groupID, ok, err := store.CompositeGroupIDFor(db, photoID); err != nil {
		return nil, err
	} else if ok {
		members, err := store.PhotoIDsInCompositeGroup(db, groupID)
		if err != nil {
			return nil, err
		}
		for _, id := range members {
			result[id] = true
		}
	}

	return expandToPrimaryGroups(db, result)
}

// expandToPrimaryGroups adds every member (including rejected ones) of each
// id's primary group.
func expandToPrimaryGroups(db *sql.DB, ids map[string]bool) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	for id := range ids {
		out[id] = true
	}
	for id := range ids {
		groupID, ok, err := store.PrimaryGroupIDFor(db, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		members, err := store.PhotoIDsInPrimaryGroup(db, groupID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			out[m] = true
		}
	}
	return out, nil
}

func getCompositeGroupPhotoIDs(db *sql.DB, groupID int64) (map[string]bool, error) {
	members, err := store.PhotoIDsInCompositeGroup(db, groupID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(members))
	for _, m := range members {
		ids[m] = true
	}
	return expandToPrimaryGroups(db, ids)
}

// GetGroupDateSources returns every usable date source for a composite
// group, organized by tier.
func GetGroupDateSources(db *sql.DB, groupID int64) (Sources, error) {
	ids, err := getCompositeGroupPhotoIDs(db, groupID)
	if err != nil {
		return Sources{}, err
	}
	return fetchDateSources(db, ids)
}

// fetchDateSources dynamically computes date sources for a photo-id set from
// the photos and photo_paths tables, re-parsing filenames and source paths
// rather than relying on a pre-populated source table.
func fetchDateSources(db *sql.DB, ids map[string]bool) (Sources, error) {
	if len(ids) == 0 {
		return Sources{}, nil
	}
	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}

	var s Sources

	photos, err := store.GetPhotosByIDs(db, idList)
	if err != nil {
		return Sources{}, err
	}
	for _, p := range photos {
		if p.DateTaken == "" {
			continue
		}
		c := candidate{Value: p.DateTaken, SourceType: p.DateSource}
		switch p.DateSource {
		case "exif":
			s.Medium = append(s.Medium, candidate{Value: p.DateTaken, SourceType: "exif"})
		case "filename":
			s.Medium = append(s.Medium, candidate{Value: p.DateTaken, SourceType: "filename"})
		case "mtime":
			s.Low = append(s.Low, candidate{Value: p.DateTaken, SourceType: "mtime"})
		default:
			if c.SourceType == "" {
				c.SourceType = "unknown"
			}
			s.Medium = append(s.Medium, c)
		}
	}

	paths, err := store.GetPhotoPathsByIDs(db, idList)
	if err != nil {
		return Sources{}, err
	}
	for _, row := range paths {
		if t, ok := metadata.ParseFilenameDate(row.Filename); ok {
			s.Medium = append(s.Medium, candidate{Value: t.Format("2006-01-02T15:04:05"), SourceType: "filename"})
		}
		for _, pc := range metadata.ParsePathDate(row.SourcePath) {
			c := candidate{Value: pc.Value, SourceType: "path_semantic"}
			switch pc.Confidence {
			case "high":
				s.High = append(s.High, c)
			case "medium":
				s.Medium = append(s.Medium, c)
			default:
				s.Low = append(s.Low, c)
			}
		}
	}

	return s, nil
}

// DeriveDateForGroup derives the best date for a composite group.
func DeriveDateForGroup(db *sql.DB, groupID int64) (Result, error) {
	sources, err := GetGroupDateSources(db, groupID)
	if err != nil {
		return Result{}, err
	}
	return deriveFromSources(sources), nil
}

// DeriveDate derives the best date for a photo or the group it belongs to.
func DeriveDate(db *sql.DB, photoID string) (Result, error) {
	ids, err := GetAllPhotoIDsForGroup(db, photoID)
	if err != nil {
		return Result{}, err
	}
	sources, err := fetchDateSources(db, ids)
	if err != nil {
		return Result{}, err
	}
	return deriveFromSources(sources), nil
}

// DeriveDateForPhotoIDs derives the best date for an explicit photo-id set,
// bypassing group expansion (e.g. after a manual adjustment).
func DeriveDateForPhotoIDs(db *sql.DB, ids []string) (Result, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	sources, err := fetchDateSources(db, set)
	if err != nil {
		return Result{}, err
	}
	return deriveFromSources(sources), nil
}

// deriveFromSources picks the earliest date from the highest non-empty
// confidence tier (§4.10 steps 2-4), after eliminating dominated partial
// dates within that tier, and flags a conflict when two or more high-tier
// dates span more than one year.
func deriveFromSources(sources Sources) Result {
	hasConflict, conflictDates := detectConflict(sources.High)

	for _, tier := range confidenceTiers {
		dates := preferSpecificDates(sources.tier(tier))
		if len(dates) == 0 {
			continue
		}
		sort.SliceStable(dates, func(i, j int) bool {
			return dateSortKey(dates[i].Value) < dateSortKey(dates[j].Value)
		})
		return Result{
			Value:         dates[0].Value,
			Confidence:    tier,
			SourceType:    dates[0].SourceType,
			HasConflict:   hasConflict,
			ConflictDates: conflictDates,
		}
	}

	return Result{}
}

func detectConflict(high []candidate) (bool, []string) {
	if len(high) < 2 {
		return false, nil
	}
	years := map[int]bool{}
	for _, c := range high {
		if y, ok := parseYear(c.Value); ok {
			years[y] = true
		}
	}
	if len(years) == 0 {
		return false, nil
	}
	minYear, maxYear := 0, 0
	first := true
	for y := range years {
		if first {
			minYear, maxYear, first = y, y, false
			continue
		}
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	if maxYear-minYear <= 1 {
		return false, nil
	}
	seen := map[string]bool{}
	var out []string
	for _, c := range high {
		if !seen[c.Value] {
			seen[c.Value] = true
			out = append(out, c.Value)
		}
	}
	sort.Strings(out)
	return true, out
}
