package cluster

import "github.com/benbc/recovery/internal/config"

// ShouldGroup is the primary-hash grouping predicate (§4.8): a piecewise
// rule over (phash_dist, dhash_dist). Boundaries are expressed with the
// config thresholds rather than inline literals so there's one place that
// defines "same photo" for the whole pipeline.
func ShouldGroup(phashDist, dhashDist int) bool {
	switch {
	case phashDist <= config.PhashSafeGroup:
		return true
	case phashDist <= config.PhashBorderline12:
		return dhashDist < config.DhashExcludeAt12
	case phashDist <= config.PhashBorderline14:
		return dhashDist <= config.DhashIncludeAt14
	default:
		return false
	}
}

