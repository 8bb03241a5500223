package pipeline

import (
	"fmt"

	"github.com/benbc/recovery/internal/hashing"
	"github.com/benbc/recovery/internal/pairs"
	"github.com/benbc/recovery/internal/store"
)

// runExtendedPair implements the P2 analogue of C7 (stage "p2_1b"):
// materialize pHash-16/colorhash distances over the kept set that now
// carries extended hashes, enriching the photo_pairs rows stage "4" wrote.
func runExtendedPair(opts *Options) (string, int, error) {
	photos, err := store.GetKeptPhotosWithExtendedHashes(opts.DB)
	if err != nil {
		return "", 0, err
	}
	if len(photos) == 0 {
		return "no photos with extended hashes", 0, nil
	}
	for _, p := range photos {
		if len(p.Colorhash) != hashing.ColorhashHexLen {
			return "", 0, fmt.Errorf("photo %s: colorhash has length %d, want %d", p.ID, len(p.Colorhash), hashing.ColorhashHexLen)
		}
	}

	items := pairs.ItemsFromExtended(photos)
	stats, err := pairs.Run(opts.DB, items)
	if err != nil {
		return "", 0, err
	}

	notes := fmt.Sprintf("kept=%d pairs=%d same_group_pairs=%d", len(photos), stats.TotalPairs, stats.SameGroupPairs)
	return notes, len(photos), nil
}
