package pipeline

import (
	"fmt"
	"sort"

	"github.com/benbc/recovery/internal/cluster"
	"github.com/benbc/recovery/internal/pairs"
	"github.com/benbc/recovery/internal/store"
)

// runPairAndCluster implements C7+C8 as a single stage ("4"): materialize
// every pairwise primary-hash distance over the kept set, then cluster it
// into primary duplicate groups.
func runPairAndCluster(opts *Options) (string, int, error) {
	photos, err := store.GetPhotosForGrouping(opts.DB)
	if err != nil {
		return "", 0, err
	}
	if len(photos) == 0 {
		return "no kept photos", 0, nil
	}

	existing, err := store.GetDuplicateGroupAssignments(opts.DB)
	if err != nil {
		return "", 0, err
	}
	items := pairs.ItemsFromKept(photos, existing)
	pairStats, err := pairs.Run(opts.DB, items)
	if err != nil {
		return "", 0, err
	}

	allPairs, err := store.GetAllPairs(opts.DB)
	if err != nil {
		return "", 0, err
	}
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}

	groups := cluster.ClusterPrimary(ids, allPairs)
	assignments := assignGroupIDs(groups)

	tx, err := opts.DB.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("beginning cluster transaction: %w", err)
	}
	if err := store.ReplaceDuplicateGroups(tx, assignments); err != nil {
		tx.Rollback()
		return "", 0, err
	}
	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("committing duplicate groups: %w", err)
	}

	notes := fmt.Sprintf("kept=%d pairs=%d same_group_pairs=%d groups=%d",
		len(photos), pairStats.TotalPairs, pairStats.SameGroupPairs, len(groups))
	return notes, len(photos), nil
}

// assignGroupIDs numbers each cluster.Group sequentially starting at 1,
// ordered by the group's smallest member id for determinism across runs
// over the same input (§9).
func assignGroupIDs(groups []cluster.Group) map[string]int64 {
	type indexed struct {
		group cluster.Group
		min   string
	}
	ordered := make([]indexed, len(groups))
	for i, g := range groups {
		min := g[0]
		for _, id := range g {
			if id < min {
				min = id
			}
		}
		ordered[i] = indexed{group: g, min: min}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].min < ordered[j].min })

	assignments := map[string]int64{}
	for i, e := range ordered {
		gid := int64(i + 1)
		for _, id := range e.group {
			assignments[id] = gid
		}
	}
	return assignments
}
