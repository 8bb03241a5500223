package pipeline

import (
	"fmt"

	"github.com/benbc/recovery/internal/cluster"
	"github.com/benbc/recovery/internal/config"
	"github.com/benbc/recovery/internal/store"
)

// runBridgeMerge implements the stage 4b supplemented feature: primary
// groups connected by at least BridgeMergeMinBridges should_group pairs that
// complete-linkage kept apart are folded together. Opt-in, off by default
// (SPEC_FULL.md SUPPLEMENTED FEATURES #1).
func runBridgeMerge(opts *Options) (string, int, error) {
	minBridges := opts.BridgeMergeMinBridges
	if minBridges <= 0 {
		minBridges = config.BridgeMergeMinCount
	}

	photos, err := store.GetPhotosForGrouping(opts.DB)
	if err != nil {
		return "", 0, err
	}
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}

	groupOf, err := store.GetDuplicateGroupAssignments(opts.DB)
	if err != nil {
		return "", 0, err
	}
	allPairs, err := store.GetAllPairs(opts.DB)
	if err != nil {
		return "", 0, err
	}

	bridges := cluster.FindPrimaryBridges(ids, allPairs, groupOf, minBridges)
	if len(bridges) == 0 {
		return "no bridges found", 0, nil
	}
	merge := cluster.BuildMergeMap(bridges)

	tx, err := opts.DB.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("beginning bridge-merge transaction: %w", err)
	}
	if err := store.RemapDuplicateGroups(tx, merge); err != nil {
		tx.Rollback()
		return "", 0, err
	}
	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("committing bridge merge: %w", err)
	}

	notes := fmt.Sprintf("bridges=%d groups_merged=%d", len(bridges), len(merge))
	return notes, len(merge), nil
}
