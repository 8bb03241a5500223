package pipeline

import (
	"fmt"

	"github.com/benbc/recovery/internal/linker"
)

func runLink(opts *Options) (string, int, error) {
	stats, err := linker.Run(opts.DB, opts.FilesDir)
	if err != nil {
		return "", 0, err
	}
	notes := fmt.Sprintf("created=%d skipped=%d errors=%d", stats.Created, stats.Skipped, stats.Errors)
	return notes, stats.Created, nil
}
