package cluster

import (
	"github.com/benbc/recovery/internal/boundary"
	"github.com/benbc/recovery/internal/store"
)

// Group is one cluster's member photo ids, in no particular order.
type Group []string

// buildDistances indexes pairs by local position (order of ids) and returns
// the (i,j)->Distance map CompleteLinkageCluster and SingleLinkageExtend
// expect, using the given projection to pick which two distance components
// form the tuple.
func buildDistances(ids []string, pairs map[string]store.PhotoPair, project func(store.PhotoPair) Distance) map[edgeKey]Distance {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	out := make(map[edgeKey]Distance)
	for _, p := range pairs {
		i, ok1 := index[p.PhotoID1]
		j, ok2 := index[p.PhotoID2]
		if !ok1 || !ok2 {
			continue
		}
		out[keyOf(i, j)] = project(p)
	}
	return out
}

func primaryProjection(p store.PhotoPair) Distance { return Distance{p.PhashDist, p.DhashDist} }
func extendedProjection(p store.PhotoPair) Distance {
	return Distance{p.Phash16Dist, p.ColorhashDist}
}

// ClusterPrimary runs §4.8 stages 1-2 over the primary (pHash/dHash) pair
// distances: connected components by ShouldGroup, then complete-linkage
// refinement inside each component.
func ClusterPrimary(ids []string, pairs map[string]store.PhotoPair) []Group {
	distances := buildDistances(ids, pairs, primaryProjection)
	shouldMerge := func(d Distance) bool { return ShouldGroup(d[0], d[1]) }

	var edges [][2]int
	for k, d := range distances {
		if shouldMerge(d) {
			edges = append(edges, [2]int{k.i, k.j})
		}
	}

	components := ConnectedComponents(edges, len(ids))
	var groups []Group
	for _, component := range components {
		if len(component) < 2 {
			continue
		}
		clusters := CompleteLinkageCluster(component, distances, shouldMerge)
		for _, c := range clusters {
			if len(c) >= 2 {
				groups = append(groups, toGroup(c, ids))
			}
		}
	}
	return groups
}

// ClusterExtended runs §4.8 stage 3 (P2): complete linkage under the relaxed
// mask to form kernels, then single-linkage extension under the strict
// mask.
func ClusterExtended(ids []string, pairs map[string]store.PhotoPair, relaxed, strict boundary.CellMask) []Group {
	distances := buildDistances(ids, pairs, extendedProjection)
	relaxedOK := func(d Distance) bool { return relaxed.Admits(d[0], d[1]) }
	strictOK := func(d Distance) bool { return strict.Admits(d[0], d[1]) }

	var relaxedEdges [][2]int
	for k, d := range distances {
		if relaxedOK(d) {
			relaxedEdges = append(relaxedEdges, [2]int{k.i, k.j})
		}
	}

	n := len(ids)
	components := ConnectedComponents(relaxedEdges, n)

	var kernels [][]int
	singletonSet := map[int]bool{}
	inComponent := make([]bool, n)
	for _, component := range components {
		for _, idx := range component {
			inComponent[idx] = true
		}
		if len(component) < 2 {
			singletonSet[component[0]] = true
			continue
		}
		clusters := CompleteLinkageCluster(component, distances, relaxedOK)
		for _, c := range clusters {
			if len(c) >= 2 {
				kernels = append(kernels, c)
			} else {
				singletonSet[c[0]] = true
			}
		}
	}
	for i := 0; i < n; i++ {
		if !inComponent[i] {
			singletonSet[i] = true
		}
	}
	var singletons []int
	for idx := range singletonSet {
		singletons = append(singletons, idx)
	}

	final := SingleLinkageExtend(kernels, singletons, distances, strictOK)

	var groups []Group
	for _, c := range final {
		if len(c) >= 2 {
			groups = append(groups, toGroup(c, ids))
		}
	}
	return groups
}

func toGroup(indices []int, ids []string) Group {
	g := make(Group, len(indices))
	for i, idx := range indices {
		g[i] = ids[idx]
	}
	return g
}
