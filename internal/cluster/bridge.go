package cluster

import (
	"sort"

	"github.com/benbc/recovery/internal/store"
)

// Bridge counts how many should-group-satisfying pairs cross between two
// different primary groups — the "bridge" stage4b_merge.py looks for.
type Bridge struct {
	Group1, Group2 int64
	Count          int
}

// FindBridges counts, for every pair of distinct primary groups, how many
// photo pairs satisfy ShouldGroup despite landing in different groups (a
// handful of outlier photos kept complete-linkage from merging them). Only
// pairs with count >= minBridges are returned, ordered by count descending
// to match the original's reporting order.
func FindBridges(pairs map[edgeKey]Distance, groupOf map[int]int64, minBridges int) []Bridge {
	counts := map[[2]int64]int{}
	for k, d := range pairs {
		if !ShouldGroup(d[0], d[1]) {
			continue
		}
		g1, ok1 := groupOf[k.i]
		g2, ok2 := groupOf[k.j]
		if !ok1 || !ok2 || g1 == g2 {
			continue
		}
		if g1 > g2 {
			g1, g2 = g2, g1
		}
		counts[[2]int64{g1, g2}]++
	}

	var out []Bridge
	for pair, count := range counts {
		if count >= minBridges {
			out = append(out, Bridge{Group1: pair[0], Group2: pair[1], Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// FindPrimaryBridges is the entry point stage 4b uses: given the kept id
// list (the same ordering ClusterPrimary was run over), the materialized
// pairs and each id's current primary group assignment, it reports every
// pair of groups connected by at least minBridges should_group pairs.
func FindPrimaryBridges(ids []string, pairs map[string]store.PhotoPair, groupOf map[string]int64, minBridges int) []Bridge {
	distances := buildDistances(ids, pairs, primaryProjection)
	byIndex := make(map[int]int64, len(groupOf))
	for i, id := range ids {
		if gid, ok := groupOf[id]; ok {
			byIndex[i] = gid
		}
	}
	return FindBridges(distances, byIndex, minBridges)
}

// BuildMergeMap resolves a bridge list into a group_id -> canonical_group_id
// map via union-find, handling transitive merges (A-B and B-C bridge into a
// single canonical group). The canonical id is the smallest group id in each
// merged set, matching the original's "keep the smaller group_id" rule.
func BuildMergeMap(bridges []Bridge) map[int64]int64 {
	parent := map[int64]int64{}
	// find is iterative two-pass (find the root, then rewrite every node on
	// the path to point at it directly) rather than recursive, since a
	// recursive path compression can blow the stack on a long chain.
	find := func(x int64) int64 {
		if _, ok := parent[x]; !ok {
			parent[x] = x
			return x
		}
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}
	union := func(x, y int64) {
		px, py := find(x), find(y)
		if px == py {
			return
		}
		if px < py {
			parent[py] = px
		} else {
			parent[px] = py
		}
	}

	for _, b := range bridges {
		union(b.Group1, b.Group2)
	}

	out := map[int64]int64{}
	for _, b := range bridges {
		for _, g := range [2]int64{b.Group1, b.Group2} {
			target := find(g)
			if target != g {
				out[g] = target
			}
		}
	}
	return out
}
