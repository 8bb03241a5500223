package pairs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexToIJBijectionSmallN(t *testing.T) {
	for n := int64(2); n <= 20; n++ {
		seen := map[[2]int64]bool{}
		total := TotalPairs(n)
		for k := int64(0); k < total; k++ {
			i, j := IndexToIJ(k, n)
			require.True(t, i >= 0 && i < n, "n=%d k=%d i=%d out of range", n, k, i)
			require.True(t, j > i && j < n, "n=%d k=%d j=%d out of range", n, k, j)
			pair := [2]int64{i, j}
			require.False(t, seen[pair], "n=%d k=%d produced duplicate pair (%d,%d)", n, k, i, j)
			seen[pair] = true
			require.Equal(t, k, IJToIndex(i, j, n), "forward mapping mismatch at n=%d k=%d", n, k)
		}
		require.Len(t, seen, int(total))
	}
}

func TestIndexToIJMonotonicRowsLargeN(t *testing.T) {
	const n = 12836
	total := TotalPairs(n)

	// Sample across the range rather than iterating all ~82M pairs.
	samples := []int64{0, 1, total / 4, total / 2, (3 * total) / 4, total - 1}
	var lastI, lastJ int64 = -1, -1
	for _, k := range samples {
		i, j := IndexToIJ(k, n)
		require.True(t, i >= 0 && i < n)
		require.True(t, j > i && j < n)
		require.Equal(t, k, IJToIndex(i, j, n))
		require.True(t, i >= lastI, "i should be non-decreasing as k increases")
		if i == lastI {
			require.True(t, j > lastJ || lastJ == -1)
		}
		lastI, lastJ = i, j
	}
}

func TestIndexToIJBoundaries(t *testing.T) {
	const n = 100
	i, j := IndexToIJ(0, n)
	require.Equal(t, int64(0), i)
	require.Equal(t, int64(1), j)

	last := TotalPairs(n) - 1
	i, j = IndexToIJ(last, n)
	require.Equal(t, int64(n-2), i)
	require.Equal(t, int64(n-1), j)
}

func TestComputeChunkSkipsEmptyHashes(t *testing.T) {
	items := []Item{
		{ID: "a", Phash: "00", Dhash: ""},
		{ID: "b", Phash: "ff", Dhash: ""},
	}
	pairs, err := computeChunk(items, chunkRange{start: 0, end: 1})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, 8, pairs[0].PhashDist)
	require.Equal(t, 0, pairs[0].DhashDist)
}
