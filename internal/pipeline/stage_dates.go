package pipeline

import (
	"fmt"
	"log"

	"github.com/benbc/recovery/internal/dates"
	"github.com/benbc/recovery/internal/store"
)

// runDates implements C10 (stage "p2_3") as a diagnostic pass: it derives a
// date for every composite group, and for every primary group that never
// joined one, logging any conflict found. Nothing is persisted here —
// "is_suggested_keeper" isn't the only thing computed on demand; a group's
// date is too (SPEC_FULL.md OPEN QUESTION DECISIONS). C12 export does not call
// the dates package.
func runDates(opts *Options) (string, int, error) {
	compositeIDs, err := store.GetAllCompositeGroupIDs(opts.DB)
	if err != nil {
		return "", 0, err
	}
	primaryIDs, err := store.GetAllGroupIDs(opts.DB)
	if err != nil {
		return "", 0, err
	}

	coveredByComposite := map[int64]bool{}
	for _, gid := range compositeIDs {
		members, err := store.PhotoIDsInCompositeGroup(opts.DB, gid)
		if err != nil {
			return "", 0, err
		}
		for _, photoID := range members {
			if primaryGroup, ok, err := store.PrimaryGroupIDFor(opts.DB, photoID); err != nil {
				return "", 0, err
			} else if ok {
				coveredByComposite[primaryGroup] = true
			}
		}
	}

	examined, derived, conflicts := 0, 0, 0
	report := func(kind string, groupID int64, result dates.Result) {
		examined++
		if result.Value != "" {
			derived++
		}
		if result.HasConflict {
			conflicts++
			log.Printf("dates: %s group %d has conflicting high-confidence dates: %v", kind, groupID, result.ConflictDates)
		}
	}

	for _, gid := range compositeIDs {
		result, err := dates.DeriveDateForGroup(opts.DB, gid)
		if err != nil {
			return "", 0, err
		}
		report("composite", gid, result)
	}
	for _, gid := range primaryIDs {
		if coveredByComposite[gid] {
			continue
		}
		ids, err := store.PhotoIDsInPrimaryGroup(opts.DB, gid)
		if err != nil {
			return "", 0, err
		}
		result, err := dates.DeriveDateForPhotoIDs(opts.DB, ids)
		if err != nil {
			return "", 0, err
		}
		report("primary", gid, result)
	}

	notes := fmt.Sprintf("groups_examined=%d dated=%d conflicts=%d", examined, derived, conflicts)
	return notes, examined, nil
}
