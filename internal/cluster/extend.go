package cluster

// SingleLinkageExtend attaches singletons to existing clusters, and merges
// clusters directly, wherever any single cross pair satisfies shouldLink
// (§4.8 stage 3.2). Ported from graph_utils.py's single_linkage_extend.
func SingleLinkageExtend(clusters [][]int, singletons []int, distances map[edgeKey]Distance, shouldLink func(Distance) bool) [][]int {
	clusterSets := make([]map[int]bool, len(clusters))
	for i, c := range clusters {
		set := make(map[int]bool, len(c))
		for _, p := range c {
			set[p] = true
		}
		clusterSets[i] = set
	}

	mergedInto := map[int]int{}
	find := func(id int) int {
		visited := map[int]bool{}
		for {
			next, ok := mergedInto[id]
			if !ok || visited[id] {
				return id
			}
			visited[id] = true
			id = next
		}
	}
	merge := func(a, b int) int {
		a, b = find(a), find(b)
		if a == b {
			return a
		}
		if len(clusterSets[a]) < len(clusterSets[b]) {
			a, b = b, a
		}
		for p := range clusterSets[b] {
			clusterSets[a][p] = true
		}
		clusterSets[b] = map[int]bool{}
		mergedInto[b] = a
		return a
	}

	anyLink := func(a, b map[int]bool) bool {
		for p1 := range a {
			for p2 := range b {
				if d, ok := distances[keyOf(p1, p2)]; ok && shouldLink(d) {
					return true
				}
			}
		}
		return false
	}

	for i := 0; i < len(clusterSets); i++ {
		for j := i + 1; j < len(clusterSets); j++ {
			ci, cj := find(i), find(j)
			if ci == cj {
				continue
			}
			if anyLink(clusterSets[ci], clusterSets[cj]) {
				merge(ci, cj)
			}
		}
	}

	for _, s := range singletons {
		var linked []int
		seen := map[int]bool{}
		for c := 0; c < len(clusterSets); c++ {
			id := find(c)
			if len(clusterSets[id]) == 0 || seen[id] {
				continue
			}
			for member := range clusterSets[id] {
				if d, ok := distances[keyOf(s, member)]; ok && shouldLink(d) {
					seen[id] = true
					linked = append(linked, id)
					break
				}
			}
		}
		if len(linked) == 0 {
			continue
		}
		target := linked[0]
		clusterSets[target][s] = true
		for _, other := range linked[1:] {
			target = merge(target, other)
		}
	}

	var out [][]int
	for _, set := range clusterSets {
		if len(set) == 0 {
			continue
		}
		group := make([]int, 0, len(set))
		for p := range set {
			group = append(group, p)
		}
		out = append(out, group)
	}
	return out
}
