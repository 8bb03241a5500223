package pipeline

import (
	"fmt"

	"github.com/benbc/recovery/internal/boundary"
	"github.com/benbc/recovery/internal/cluster"
	"github.com/benbc/recovery/internal/store"
)

// groupsFromAssignments reconstructs []cluster.Group from a photo_id ->
// group_id map, the inverse of assignGroupIDs, so the composite join can
// operate over the already-persisted primary groups.
func groupsFromAssignments(assignments map[string]int64) []cluster.Group {
	byGroup := map[int64][]string{}
	for id, gid := range assignments {
		byGroup[gid] = append(byGroup[gid], id)
	}
	out := make([]cluster.Group, 0, len(byGroup))
	for _, members := range byGroup {
		out = append(out, cluster.Group(members))
	}
	return out
}

// runExtendedCluster implements the P2 analogue of C8 plus the composite
// join (stage "p2_2"): complete-linkage kernels under the relaxed
// threshold-boundary mask, single-linkage extension under the strict mask,
// then a union-find join against the primary groups (§4.8 stage 3).
func runExtendedCluster(opts *Options) (string, int, error) {
	photos, err := store.GetKeptPhotosWithExtendedHashes(opts.DB)
	if err != nil {
		return "", 0, err
	}
	if len(photos) == 0 {
		return "no photos with extended hashes", 0, nil
	}

	boundaries, err := boundary.Load(opts.BoundaryPath)
	if err != nil {
		return "", 0, fmt.Errorf("loading threshold boundaries: %w", err)
	}
	relaxed, err := boundary.NewCellMask(boundaries.Complete)
	if err != nil {
		return "", 0, fmt.Errorf("building relaxed cell mask: %w", err)
	}
	strict, err := boundary.NewCellMask(boundaries.Single)
	if err != nil {
		return "", 0, fmt.Errorf("building strict cell mask: %w", err)
	}

	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	allPairs, err := store.GetAllPairs(opts.DB)
	if err != nil {
		return "", 0, err
	}

	extendedGroups := cluster.ClusterExtended(ids, allPairs, relaxed, strict)
	p2Assignments := assignGroupIDs(extendedGroups)

	primaryAssignments, err := store.GetDuplicateGroupAssignments(opts.DB)
	if err != nil {
		return "", 0, err
	}
	primaryGroups := groupsFromAssignments(primaryAssignments)
	compositeGroups := cluster.Composite(ids, primaryGroups, extendedGroups)
	compositeAssignments := assignGroupIDs(compositeGroups)

	tx, err := opts.DB.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("beginning extended-cluster transaction: %w", err)
	}
	if err := store.ReplaceP2Groups(tx, p2Assignments); err != nil {
		tx.Rollback()
		return "", 0, err
	}
	if err := store.ReplaceCompositeGroups(tx, compositeAssignments); err != nil {
		tx.Rollback()
		return "", 0, err
	}
	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("committing extended/composite groups: %w", err)
	}

	notes := fmt.Sprintf("kept=%d p2_groups=%d composite_groups=%d", len(photos), len(extendedGroups), len(compositeGroups))
	return notes, len(photos), nil
}
