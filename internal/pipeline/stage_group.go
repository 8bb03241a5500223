package pipeline

import (
	"fmt"

	bar "github.com/schollz/progressbar/v3"

	"github.com/benbc/recovery/internal/rules"
	"github.com/benbc/recovery/internal/store"
)

// runGroupRules implements C9: evaluate the ordered group-rejection rule
// list against every primary group, aggregating each rejected member's
// paths onto the group's single best-ranked survivor (§4.9).
func runGroupRules(opts *Options) (string, int, error) {
	groupIDs, err := store.GetAllGroupIDs(opts.DB)
	if err != nil {
		return "", 0, err
	}
	if len(groupIDs) == 0 {
		return "no groups", 0, nil
	}

	progress := bar.Default(int64(len(groupIDs)), "Group rules")
	tx, err := opts.DB.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("beginning group-rules transaction: %w", err)
	}
	rejectedTotal, aggregatedTotal := 0, 0

	for _, groupID := range groupIDs {
		members, err := store.GetGroupMembers(opts.DB, groupID)
		if err != nil {
			tx.Rollback()
			return "", 0, err
		}
		if len(members) < 2 {
			progress.Add(1)
			continue
		}

		ruleMembers := make([]rules.GroupMember, len(members))
		byID := make(map[string]store.GroupMember, len(members))
		for i, m := range members {
			ruleMembers[i] = rules.GroupMember{
				PhotoID:  m.Photo.ID,
				Width:    m.Photo.Width,
				Height:   m.Photo.Height,
				FileSize: m.Photo.FileSize,
				HasExif:  m.Photo.HasExif,
				AllPaths: m.Paths,
			}
			byID[m.Photo.ID] = m
		}

		rejections := rules.ApplyGroupRules(ruleMembers)
		if len(rejections) == 0 {
			progress.Add(1)
			continue
		}
		rejectedIDs := make(map[string]bool, len(rejections))
		for _, r := range rejections {
			rejectedIDs[r.PhotoID] = true
		}
		var survivors []rules.GroupMember
		for _, m := range ruleMembers {
			if !rejectedIDs[m.PhotoID] {
				survivors = append(survivors, m)
			}
		}
		if len(survivors) == 0 {
			// Every member rejected is nonsensical (a group always needs
			// at least one keeper); treat as a no-op rather than losing
			// the whole group.
			progress.Add(1)
			continue
		}
		keeper := rules.Keeper(survivors)

		for _, r := range rejections {
			if err := store.InsertGroupRejection(tx, store.GroupRejection{
				PhotoID:  r.PhotoID,
				GroupID:  groupID,
				RuleName: r.RuleName,
			}); err != nil {
				tx.Rollback()
				return "", 0, err
			}
			rejectedTotal++
			for _, path := range byID[r.PhotoID].Paths {
				if err := store.InsertAggregatedPath(tx, store.AggregatedPath{
					KeptPhotoID: keeper.PhotoID,
					SourcePath:  path,
					FromPhotoID: r.PhotoID,
				}); err != nil {
					tx.Rollback()
					return "", 0, err
				}
				aggregatedTotal++
			}
		}
		progress.Add(1)
	}
	progress.Finish()

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("committing group rules: %w", err)
	}
	notes := fmt.Sprintf("groups=%d rejected=%d paths_aggregated=%d", len(groupIDs), rejectedTotal, aggregatedTotal)
	return notes, rejectedTotal, nil
}
