package pipeline

import (
	"github.com/benbc/recovery/internal/export"
)

func runExport(opts *Options) (string, int, error) {
	stats, err := export.Run(opts.DB, opts.ExportDir, opts.Copy)
	if err != nil {
		return "", 0, err
	}
	return stats.String(), stats.Exported, nil
}
