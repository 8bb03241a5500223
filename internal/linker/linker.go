// Package linker implements C5: hardlinking every known photo into the
// content-addressed files/ tree, falling back to a copy across devices.
package linker

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	bar "github.com/schollz/progressbar/v3"

	"github.com/benbc/recovery/internal/config"
)

// Stats summarizes one linking run.
type Stats struct {
	Created int
	Skipped int
	Errors  int
}

// photoSourceRow is the minimal projection needed to compute a link's
// destination path and find a source file to link from.
type photoSourceRow struct {
	id       string
	mimeType string
	filename string
	path     string
}

// Run creates files/<id[:2]>/<id>.<ext> for every Photo, linking from the
// best-named of its recorded source paths (§4.5) — when a photo was found
// at more than one path (e.g. an original plus an OS-generated "IMG_1234
// copy.jpg" duplicate), isFilenameBetter picks the one least likely to be a
// renamed duplicate, rather than an arbitrary MIN(id) tiebreak. An existing
// canonical file is left untouched and counted as skipped; a failed
// hardlink (e.g. cross-device) falls back to a byte copy.
func Run(db *sql.DB, filesDir string) (Stats, error) {
	rows, err := db.Query(`
		SELECT p.id, p.mime_type, pp.filename, pp.source_path
		FROM photos p
		JOIN photo_paths pp ON p.id = pp.photo_id
		ORDER BY p.id ASC, pp.id ASC`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying photos to link: %w", err)
	}
	best := make(map[string]photoSourceRow)
	var order []string
	for rows.Next() {
		var r photoSourceRow
		if err := rows.Scan(&r.id, &r.mimeType, &r.filename, &r.path); err != nil {
			rows.Close()
			return Stats{}, fmt.Errorf("scanning photo to link: %w", err)
		}
		if existing, ok := best[r.id]; !ok {
			best[r.id] = r
			order = append(order, r.id)
		} else if isFilenameBetter(r.filename, existing.filename) {
			best[r.id] = r
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	photos := make([]photoSourceRow, 0, len(order))
	for _, id := range order {
		photos = append(photos, best[id])
	}

	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("creating files dir %s: %w", filesDir, err)
	}

	var stats Stats
	progress := bar.Default(int64(len(photos)), "Linking")
	for _, p := range photos {
		ext := ExtensionFor(p.mimeType, p.filename)
		dest := LinkPath(filesDir, p.id, ext)

		if _, err := os.Stat(dest); err == nil {
			stats.Skipped++
			progress.Add(1)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			log.Printf("linker: creating directory for %s: %v", dest, err)
			stats.Errors++
			progress.Add(1)
			continue
		}

		if err := LinkOrCopy(p.path, dest); err != nil {
			log.Printf("linker: %s -> %s: %v", p.path, dest, err)
			stats.Errors++
			progress.Add(1)
			continue
		}
		stats.Created++
		progress.Add(1)
	}
	progress.Finish()
	return stats, nil
}

// isFilenameBetter reports whether newName is preferred over oldName as a
// photo's canonical source: a non-"copy" name beats a "copy" name, and
// otherwise the shorter (then lexicographically earlier) name wins.
func isFilenameBetter(newName, oldName string) bool {
	newBase := strings.ToLower(strings.TrimSuffix(newName, filepath.Ext(newName)))
	oldBase := strings.ToLower(strings.TrimSuffix(oldName, filepath.Ext(oldName)))
	copyPatterns := []string{" copy", " (1)", " (2)", " (3)", "_1", "_2", "_3"}

	isCopy := func(base string) bool {
		for _, pattern := range copyPatterns {
			if strings.HasSuffix(base, pattern) {
				return true
			}
		}
		return false
	}
	newIsCopy, oldIsCopy := isCopy(newBase), isCopy(oldBase)

	if oldIsCopy && !newIsCopy {
		return true
	}
	if !oldIsCopy && newIsCopy {
		return false
	}
	if len(newName) != len(oldName) {
		return len(newName) < len(oldName)
	}
	return newName < oldName
}

// LinkPath computes the canonical content-addressed path for a photo id
// (§3, §6): files/<first-2-hex>/<full-hash>.<ext>.
func LinkPath(filesDir, id, ext string) string {
	subdir := id
	if len(id) >= 2 {
		subdir = id[:2]
	}
	return filepath.Join(filesDir, subdir, id+ext)
}

// ExtensionFor chooses an extension from the MIME table, falling back to the
// original filename's extension, falling back to ".bin" (§3, §4.3). Exported
// so the hash and export stages can recompute a photo's canonical path
// without re-deriving the mapping.
func ExtensionFor(mimeType, filename string) string {
	if ext, ok := config.MIMEToExt[mimeType]; ok {
		return ext
	}
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return ".bin"
}

// LinkOrCopy attempts a hardlink first; if that fails — typically EXDEV when
// the destination is on a different filesystem — it falls back to a
// full-content copy (§4.5). Exported so the exporter can reuse the same
// fallback behavior instead of re-implementing it.
func LinkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		return CopyFile(src, dst)
	}
	return nil
}

// CopyFile does a full-content copy, used directly when a caller wants to
// force a copy (export's --copy flag) instead of attempting a hardlink first.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}
