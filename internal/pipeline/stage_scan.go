package pipeline

import (
	"fmt"

	"github.com/benbc/recovery/internal/scanner"
)

func runScan(opts *Options) (string, int, error) {
	stats, err := scanner.Run(opts.DB, opts.SourceRoot)
	if err != nil {
		return "", 0, err
	}
	notes := fmt.Sprintf("walked=%d new=%d paths_new=%d skipped=%d errors=%d",
		stats.FilesWalked, stats.PhotosNew, stats.PathsNew, stats.Skipped, stats.Errors)
	return notes, stats.PhotosNew, nil
}
