package hashing

import (
	"fmt"
	"math/big"
	"math/bits"
)

// HammingDistance computes the hamming distance between two equal-length hex
// strings by XOR of their integer representations followed by population
// count (§4.2). Both strings must share the same length; callers with a
// missing hash on either side should skip the comparison rather than call
// this function with an empty string.
func HammingDistance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("hamming distance: hash length mismatch (%d vs %d)", len(a), len(b))
	}
	ai, ok := new(big.Int).SetString(a, 16)
	if !ok {
		return 0, fmt.Errorf("hamming distance: %q is not valid hex", a)
	}
	bi, ok := new(big.Int).SetString(b, 16)
	if !ok {
		return 0, fmt.Errorf("hamming distance: %q is not valid hex", b)
	}
	xor := new(big.Int).Xor(ai, bi)
	return popcount(xor), nil
}

// popcount sums set bits word by word — a portable fallback in place of a
// SIMD popcount path (§9), sufficient since hashing only runs once per photo
// and pair distances are computed from already-materialized hex strings.
func popcount(x *big.Int) int {
	count := 0
	for _, w := range x.Bits() {
		count += bits.OnesCount64(uint64(w))
	}
	return count
}
