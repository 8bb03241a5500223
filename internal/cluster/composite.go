package cluster

// Composite joins primary-group and P2-group membership over the same kept
// photo-id universe: a union-find over that universe, unioning every pair
// of ids that share a primary group or share a P2 group (§4.8: "composite
// join ... if both primary and P2 groups exist, a union-find over the kept
// subset joins both").
func Composite(ids []string, primaryGroups, extendedGroups []Group) []Group {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	uf := NewUnionFind(len(ids))

	unionGroup := func(g Group) {
		first, ok := -1, false
		for _, id := range g {
			i, known := index[id]
			if !known {
				continue
			}
			if !ok {
				first, ok = i, true
				continue
			}
			uf.Union(first, i)
		}
	}
	for _, g := range primaryGroups {
		unionGroup(g)
	}
	for _, g := range extendedGroups {
		unionGroup(g)
	}

	byRoot := make(map[int][]int)
	for i := range ids {
		root := uf.Find(i)
		byRoot[root] = append(byRoot[root], i)
	}
	var out []Group
	for _, members := range byRoot {
		if len(members) < 2 {
			continue
		}
		out = append(out, toGroup(members, ids))
	}
	return out
}
