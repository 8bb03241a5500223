// Package pairs implements C7: computing pairwise Hamming distances between
// every kept photo and materializing them into the store in large batches.
package pairs

import "math"

// TotalPairs is the number of unordered pairs among n items.
func TotalPairs(n int64) int64 {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// triangularOffset is the linear index of the first pair (i, i+1) in the
// enumeration k=0:(0,1), k=1:(0,2), ..., k=n-2:(0,n-1), k=n-1:(1,2), ...
func triangularOffset(i, n int64) int64 {
	return i * (2*n - i - 1) / 2
}

// IndexToIJ converts a linear pair index k into (i, j), i < j, over n items
// (spec §4.7's closed-form inverse of the triangular enumeration). The
// float64 formula gives the answer up to floating-point rounding; the loop
// below corrects any off-by-one so the mapping is exact for every n, not
// just the ranges where float64 precision happens to suffice.
func IndexToIJ(k, n int64) (int64, int64) {
	nf := float64(n)
	kf := float64(k)
	i := int64(math.Floor((2*nf - 1 - math.Sqrt((2*nf-1)*(2*nf-1)-8*kf)) / 2))

	for i > 0 && triangularOffset(i, n) > k {
		i--
	}
	for triangularOffset(i+1, n) <= k {
		i++
	}

	j := k - triangularOffset(i, n) + i + 1
	return i, j
}

// IJToIndex is the forward direction, used by tests to confirm IndexToIJ is
// a true bijection over the enumeration.
func IJToIndex(i, j, n int64) int64 {
	return triangularOffset(i, n) + (j - i - 1)
}
