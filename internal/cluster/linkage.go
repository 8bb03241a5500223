package cluster

import "container/heap"

// Distance is a pairwise distance tuple, compared lexicographically for
// both the merge predicate's input and the priority-queue sort key (§4.8:
// "keyed by the distance tuple, ties broken lexicographically").
type Distance [2]int

func (d Distance) less(o Distance) bool {
	if d[0] != o[0] {
		return d[0] < o[0]
	}
	return d[1] < o[1]
}

func (d Distance) equal(o Distance) bool { return d == o }

type edgeKey struct{ i, j int }

func keyOf(i, j int) edgeKey {
	if i > j {
		i, j = j, i
	}
	return edgeKey{i, j}
}

// heapEntry is one pending cluster-merge candidate.
type heapEntry struct {
	dist   Distance
	c1, c2 int
}

type mergeHeap []heapEntry

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if !h[i].dist.equal(h[j].dist) {
		return h[i].dist.less(h[j].dist)
	}
	if h[i].c1 != h[j].c1 {
		return h[i].c1 < h[j].c1
	}
	return h[i].c2 < h[j].c2
}
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// CompleteLinkageCluster merges indices into clusters in order of increasing
// distance, admitting a merge only when every cross pair between the two
// clusters satisfies shouldMerge (§4.8 stage 2). distances maps an
// unordered pair (by keyOf) to its Distance; pairs absent from the map are
// treated as non-admissible. Ported from graph_utils.py's
// complete_linkage_cluster.
func CompleteLinkageCluster(indices []int, distances map[edgeKey]Distance, shouldMerge func(Distance) bool) [][]int {
	if len(indices) == 0 {
		return nil
	}
	if len(indices) == 1 {
		return [][]int{{indices[0]}}
	}

	idxToLocal := make(map[int]int, len(indices))
	localToIdx := make([]int, len(indices))
	for li, idx := range indices {
		idxToLocal[idx] = li
		localToIdx[li] = idx
	}
	n := len(indices)

	clusters := make(map[int]map[int]bool, n)
	pointToCluster := make([]int, n)
	for i := 0; i < n; i++ {
		clusters[i] = map[int]bool{i: true}
		pointToCluster[i] = i
	}

	localDistances := make(map[edgeKey]Distance)
	for globalKey, dist := range distances {
		li, liok := idxToLocal[globalKey.i]
		lj, ljok := idxToLocal[globalKey.j]
		if !liok || !ljok {
			continue
		}
		localDistances[keyOf(li, lj)] = dist
	}

	clusterDistances := make(map[edgeKey]Distance)
	for k, dist := range localDistances {
		c1, c2 := pointToCluster[k.i], pointToCluster[k.j]
		clusterDistances[keyOf(c1, c2)] = dist
	}

	h := &mergeHeap{}
	heap.Init(h)
	for k, dist := range clusterDistances {
		if shouldMerge(dist) {
			heap.Push(h, heapEntry{dist: dist, c1: k.i, c2: k.j})
		}
	}

	for h.Len() > 0 {
		entry := heap.Pop(h).(heapEntry)
		c1, c2 := entry.c1, entry.c2

		if _, ok := clusters[c1]; !ok {
			continue
		}
		if _, ok := clusters[c2]; !ok {
			continue
		}
		key := keyOf(c1, c2)
		current, ok := clusterDistances[key]
		if !ok || !current.equal(entry.dist) {
			continue
		}

		merged := clusters[c1]
		for p := range clusters[c2] {
			merged[p] = true
			pointToCluster[p] = c1
		}
		delete(clusters, c2)
		delete(clusterDistances, key)

		for other := range clusters {
			if other == c1 {
				continue
			}
			var maxDist Distance
			haveMax := false
			allOK := true
		pairs:
			for p1 := range merged {
				for p2 := range clusters[other] {
					d, ok := localDistances[keyOf(p1, p2)]
					if !ok || !shouldMerge(d) {
						allOK = false
						break pairs
					}
					if !haveMax || maxDist.less(d) {
						maxDist = d
						haveMax = true
					}
				}
			}
			newKey := keyOf(c1, other)
			delete(clusterDistances, newKey)
			if allOK && haveMax {
				clusterDistances[newKey] = maxDist
				heap.Push(h, heapEntry{dist: maxDist, c1: newKey.i, c2: newKey.j})
			}
		}
	}

	out := make([][]int, 0, len(clusters))
	for _, members := range clusters {
		group := make([]int, 0, len(members))
		for p := range members {
			group = append(group, localToIdx[p])
		}
		out = append(out, group)
	}
	return out
}
