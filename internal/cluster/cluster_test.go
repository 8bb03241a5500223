package cluster

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benbc/recovery/internal/boundary"
	"github.com/benbc/recovery/internal/store"
)

func TestShouldGroupBoundaryTable(t *testing.T) {
	for phash := 0; phash <= 10; phash++ {
		for _, dhash := range []int{0, 10, 20, 30, 50} {
			require.True(t, ShouldGroup(phash, dhash), "phash=%d dhash=%d", phash, dhash)
		}
	}
	for _, phash := range []int{11, 12} {
		for _, dhash := range []int{0, 10, 21} {
			require.True(t, ShouldGroup(phash, dhash), "phash=%d dhash=%d", phash, dhash)
		}
		for _, dhash := range []int{22, 30, 50} {
			require.False(t, ShouldGroup(phash, dhash), "phash=%d dhash=%d", phash, dhash)
		}
	}
	for _, phash := range []int{13, 14} {
		for _, dhash := range []int{0, 10, 17} {
			require.True(t, ShouldGroup(phash, dhash), "phash=%d dhash=%d", phash, dhash)
		}
		for _, dhash := range []int{18, 25, 50} {
			require.False(t, ShouldGroup(phash, dhash), "phash=%d dhash=%d", phash, dhash)
		}
	}
	for _, phash := range []int{15, 16, 20, 30, 50} {
		for _, dhash := range []int{0, 5, 10, 17, 21} {
			require.False(t, ShouldGroup(phash, dhash), "phash=%d dhash=%d", phash, dhash)
		}
	}
}

func sizes(components [][]int) []int {
	var out []int
	for _, c := range components {
		out = append(out, len(c))
	}
	sort.Ints(out)
	return out
}

func TestConnectedComponentsEmptyGraph(t *testing.T) {
	result := ConnectedComponents(nil, 3)
	require.Equal(t, []int{1, 1, 1}, sizes(result))
}

func TestConnectedComponentsChain(t *testing.T) {
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}}
	result := ConnectedComponents(edges, 4)
	require.Len(t, result, 1)
	require.ElementsMatch(t, []int{0, 1, 2, 3}, result[0])
}

func TestConnectedComponentsDisconnected(t *testing.T) {
	edges := [][2]int{{0, 1}, {2, 3}, {3, 4}}
	result := ConnectedComponents(edges, 6)
	require.Equal(t, []int{1, 2, 3}, sizes(result))
}

func TestConnectedComponentsHubAndSpoke(t *testing.T) {
	edges := [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}}
	result := ConnectedComponents(edges, 5)
	require.Len(t, result, 1)
	require.ElementsMatch(t, []int{0, 1, 2, 3, 4}, result[0])
}

func TestConnectedComponentsOrderIndependent(t *testing.T) {
	a := ConnectedComponents([][2]int{{0, 1}, {1, 2}, {2, 3}}, 4)
	b := ConnectedComponents([][2]int{{2, 3}, {0, 1}, {1, 2}}, 4)
	require.Equal(t, sizes(a), sizes(b))
}

func always(Distance) bool    { return true }
func never(Distance) bool     { return false }
func under10(d Distance) bool { return d[0] < 10 }

func TestCompleteLinkageSingleNode(t *testing.T) {
	result := CompleteLinkageCluster([]int{0}, map[edgeKey]Distance{}, always)
	require.Equal(t, [][]int{{0}}, result)
}

func TestCompleteLinkageEmpty(t *testing.T) {
	result := CompleteLinkageCluster(nil, map[edgeKey]Distance{}, always)
	require.Nil(t, result)
}

func TestCompleteLinkageTwoNodesGroup(t *testing.T) {
	distances := map[edgeKey]Distance{keyOf(0, 1): {5, 5}}
	result := CompleteLinkageCluster([]int{0, 1}, distances, under10)
	require.Len(t, result, 1)
	require.ElementsMatch(t, []int{0, 1}, result[0])
}

func TestCompleteLinkageTwoNodesSeparate(t *testing.T) {
	distances := map[edgeKey]Distance{keyOf(0, 1): {20, 20}}
	result := CompleteLinkageCluster([]int{0, 1}, distances, under10)
	require.Len(t, result, 2)
}

// TestCompleteLinkageChainWithMissingLinkStaysSeparate is the chaining-
// problem regression: A-B and B-C each satisfy should_merge, but A-C does
// not, so complete linkage must NOT place all three in one cluster.
func TestCompleteLinkageChainWithMissingLinkStaysSeparate(t *testing.T) {
	distances := map[edgeKey]Distance{
		keyOf(0, 1): {5, 5},
		keyOf(1, 2): {5, 5},
		keyOf(0, 2): {20, 20},
	}
	result := CompleteLinkageCluster([]int{0, 1, 2}, distances, under10)
	found := map[int]bool{}
	for _, c := range result {
		found[len(c)] = true
	}
	require.False(t, found[3], "all three nodes must not merge across the missing A-C link")
}

func TestCompleteLinkageDiamondAllMerge(t *testing.T) {
	distances := map[edgeKey]Distance{
		keyOf(0, 1): {5, 5},
		keyOf(0, 2): {5, 5},
		keyOf(1, 3): {5, 5},
		keyOf(2, 3): {5, 5},
		keyOf(0, 3): {5, 5},
		keyOf(1, 2): {5, 5},
	}
	result := CompleteLinkageCluster([]int{0, 1, 2, 3}, distances, under10)
	require.Len(t, result, 1)
	require.ElementsMatch(t, []int{0, 1, 2, 3}, result[0])
}

func TestSingleLinkageExtendAttachesSingleton(t *testing.T) {
	clusters := [][]int{{0, 1}}
	singletons := []int{2}
	distances := map[edgeKey]Distance{keyOf(1, 2): {1, 1}}
	result := SingleLinkageExtend(clusters, singletons, distances, always)
	require.Len(t, result, 1)
	require.ElementsMatch(t, []int{0, 1, 2}, result[0])
}

func TestSingleLinkageExtendLeavesUnlinkedSingletons(t *testing.T) {
	clusters := [][]int{{0, 1}}
	singletons := []int{2}
	distances := map[edgeKey]Distance{}
	result := SingleLinkageExtend(clusters, singletons, distances, never)
	require.Len(t, result, 1)
	require.ElementsMatch(t, []int{0, 1}, result[0])
}

func TestClusterPrimaryBridgedCliques(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	pairs := map[string]store.PhotoPair{
		store.PairKey("a", "b"): {PhotoID1: "a", PhotoID2: "b", PhashDist: 2, DhashDist: 2},
		store.PairKey("c", "d"): {PhotoID1: "c", PhotoID2: "d", PhashDist: 2, DhashDist: 2},
		store.PairKey("b", "c"): {PhotoID1: "b", PhotoID2: "c", PhashDist: 2, DhashDist: 2},
		store.PairKey("a", "d"): {PhotoID1: "a", PhotoID2: "d", PhashDist: 30, DhashDist: 30},
		store.PairKey("a", "c"): {PhotoID1: "a", PhotoID2: "c", PhashDist: 30, DhashDist: 30},
		store.PairKey("b", "d"): {PhotoID1: "b", PhotoID2: "d", PhashDist: 30, DhashDist: 30},
	}
	groups := ClusterPrimary(ids, pairs)
	for _, g := range groups {
		require.Less(t, len(g), 4, "a-d and a-c should prevent the full clique from merging")
	}
}

func TestClusterPrimaryDropsUnpairedSingleton(t *testing.T) {
	ids := []string{"a", "b", "e"}
	pairs := map[string]store.PhotoPair{
		store.PairKey("a", "b"): {PhotoID1: "a", PhotoID2: "b", PhashDist: 2, DhashDist: 2},
	}
	groups := ClusterPrimary(ids, pairs)
	require.Len(t, groups, 1)
	require.ElementsMatch(t, []string{"a", "b"}, groups[0])
	for _, g := range groups {
		for _, id := range g {
			require.NotEqual(t, "e", id, "an unpaired photo must not appear in any group")
		}
		require.GreaterOrEqual(t, len(g), 2, "every duplicate group must have at least 2 members")
	}
}

func TestCompositeJoinsAcrossBothGroupSets(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	primary := []Group{{"a", "b"}}
	extended := []Group{{"b", "c"}}
	result := Composite(ids, primary, extended)
	require.Len(t, result, 1)
	require.ElementsMatch(t, []string{"a", "b", "c"}, result[0])
}

func TestCellMaskDrivenClusterExtended(t *testing.T) {
	ids := []string{"a", "b", "c"}
	pairs := map[string]store.PhotoPair{
		store.PairKey("a", "b"): {PhotoID1: "a", PhotoID2: "b", Phash16Dist: 2, ColorhashDist: 0},
		store.PairKey("b", "c"): {PhotoID1: "b", PhotoID2: "c", Phash16Dist: 4, ColorhashDist: 0},
		store.PairKey("a", "c"): {PhotoID1: "a", PhotoID2: "c", Phash16Dist: 20, ColorhashDist: 0},
	}
	relaxed, err := boundary.NewCellMask([]string{"5,0"})
	require.NoError(t, err)
	strict, err := boundary.NewCellMask([]string{"4,0"})
	require.NoError(t, err)

	groups := ClusterExtended(ids, pairs, relaxed, strict)
	require.Len(t, groups, 1)
	require.ElementsMatch(t, []string{"a", "b", "c"}, groups[0])
}
