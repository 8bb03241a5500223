// Package export implements C12: copying or hardlinking every kept photo
// into a flat destination tree named by content hash, grounded on
// pipeline/stage6_export.py.
package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"
	bar "github.com/schollz/progressbar/v3"

	"github.com/benbc/recovery/internal/linker"
	"github.com/benbc/recovery/internal/store"
)

// Stats summarizes one export run.
type Stats struct {
	Exported     int
	Skipped      int
	Errors       int
	BytesWritten int64
}

// String renders a human-readable summary, e.g. "exported=120 (1.2 GB)
// skipped=4 errors=0".
func (s Stats) String() string {
	return fmt.Sprintf("exported=%d (%s) skipped=%d errors=%d",
		s.Exported, humanize.Bytes(uint64(s.BytesWritten)), s.Skipped, s.Errors)
}

// Run exports every accepted photo (§3 "kept" = not individually decided,
// not group-rejected) to exportDir as "<id><ext>", preferring a hardlink and
// falling back to a copy unless copy forces a copy outright. An existing
// destination file is left untouched and counted as skipped, matching the
// original's idempotent rerun behavior.
func Run(db *sql.DB, exportDir string, copy bool) (Stats, error) {
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("creating export directory %s: %w", exportDir, err)
	}

	photos, err := store.GetAcceptedPhotos(db)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	progress := bar.Default(int64(len(photos)), "Exporting")
	for _, p := range photos {
		source, ok := firstExistingPath(db, p.ID)
		if !ok {
			stats.Errors++
			progress.Add(1)
			continue
		}

		ext := linker.ExtensionFor(p.MimeType, filepath.Base(source))
		dest := filepath.Join(exportDir, p.ID+ext)
		if _, err := os.Stat(dest); err == nil {
			stats.Skipped++
			progress.Add(1)
			continue
		}

		var linkErr error
		if copy {
			linkErr = linker.CopyFile(source, dest)
		} else {
			linkErr = linker.LinkOrCopy(source, dest)
		}
		if linkErr != nil {
			stats.Errors++
			progress.Add(1)
			continue
		}
		if info, err := os.Stat(dest); err == nil {
			stats.BytesWritten += info.Size()
		}
		stats.Exported++
		progress.Add(1)
	}
	progress.Finish()
	return stats, nil
}

// firstExistingPath returns the first of a photo's own and aggregated paths
// that still exists on disk (§4.12: a rejected duplicate's source file may
// have moved or been deleted since scanning).
func firstExistingPath(db *sql.DB, photoID string) (string, bool) {
	paths, err := store.AllPathsForPhoto(db, photoID)
	if err != nil {
		return "", false
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
