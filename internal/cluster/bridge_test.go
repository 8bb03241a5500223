package cluster

import "testing"

import "github.com/stretchr/testify/require"

func TestFindBridgesOnlyCountsCrossGroupShouldGroupPairs(t *testing.T) {
	pairs := map[edgeKey]Distance{
		keyOf(0, 1): {2, 2}, // same group, not a bridge
		keyOf(0, 2): {2, 2}, // crosses groups, qualifies
		keyOf(1, 2): {30, 30},
	}
	groupOf := map[int]int64{0: 1, 1: 1, 2: 2}
	bridges := FindBridges(pairs, groupOf, 1)
	require.Len(t, bridges, 1)
	require.Equal(t, int64(1), bridges[0].Group1)
	require.Equal(t, int64(2), bridges[0].Group2)
	require.Equal(t, 1, bridges[0].Count)
}

func TestFindBridgesBelowThresholdExcluded(t *testing.T) {
	pairs := map[edgeKey]Distance{keyOf(0, 1): {2, 2}}
	groupOf := map[int]int64{0: 1, 1: 2}
	require.Empty(t, FindBridges(pairs, groupOf, 2))
}

func TestBuildMergeMapTransitive(t *testing.T) {
	bridges := []Bridge{{Group1: 1, Group2: 2, Count: 60}, {Group1: 2, Group2: 3, Count: 60}}
	merge := BuildMergeMap(bridges)
	require.Equal(t, int64(1), merge[2])
	require.Equal(t, int64(1), merge[3])
}

func TestBuildMergeMapKeepsSmallestCanonical(t *testing.T) {
	bridges := []Bridge{{Group1: 5, Group2: 2, Count: 60}}
	merge := BuildMergeMap(bridges)
	require.Equal(t, int64(2), merge[5])
	_, stillPresent := merge[2]
	require.False(t, stillPresent)
}
