// Package scanner implements C4: a single-threaded walk of the source tree
// that ingests every accepted image into the store, idempotently.
package scanner

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	exif "github.com/barasher/go-exiftool"
	bar "github.com/schollz/progressbar/v3"

	"github.com/benbc/recovery/internal/config"
	"github.com/benbc/recovery/internal/hashing"
	"github.com/benbc/recovery/internal/metadata"
	"github.com/benbc/recovery/internal/store"
)

// Stats summarizes one scan run, reported in the stage completion notes.
type Stats struct {
	FilesWalked int
	PhotosNew   int
	PathsNew    int
	Skipped     int
	Errors      int
}

// Run walks root recursively, ingesting every accepted image file. It is
// single-threaded (§5: "C4 scan ... single-threaded main loop, batched
// commits") and resumable: rerunning after a partial run reads and hashes
// every path again but records only the paths not already stored (§4.4).
func Run(db *sql.DB, root string) (Stats, error) {
	et, err := exif.NewExiftool(exif.Buffer(make([]byte, 4096*1024), 2048*1024))
	if err != nil {
		log.Printf("scanner: could not start exiftool, EXIF dates will be unavailable: %v", err)
		et = nil
	}
	if et != nil {
		defer et.Close()
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if config.ExcludeFilenames[name] {
			return nil
		}
		if strings.HasPrefix(name, "._") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("walking source root %s: %w", root, err)
	}

	stats := Stats{FilesWalked: len(paths)}
	progress := bar.Default(int64(len(paths)), "Scanning")

	tx, err := db.Begin()
	if err != nil {
		return stats, fmt.Errorf("beginning scan transaction: %w", err)
	}
	pending := 0
	commit := func() error {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing scan batch: %w", err)
		}
		tx, err = db.Begin()
		if err != nil {
			return fmt.Errorf("beginning next scan batch: %w", err)
		}
		pending = 0
		return nil
	}

	for _, path := range paths {
		extracted, ok, err := metadata.Extract(path, et)
		if err != nil || !ok {
			if err != nil {
				log.Printf("scanner: skipping %s: %v", path, err)
				stats.Errors++
			} else {
				stats.Skipped++
			}
			progress.Add(1)
			continue
		}

		sum, err := hashing.SHA256File(path)
		if err != nil {
			log.Printf("scanner: hashing %s: %v", path, err)
			stats.Errors++
			progress.Add(1)
			continue
		}

		exists, err := store.PhotoExists(db, sum)
		if err != nil {
			tx.Rollback()
			return stats, err
		}
		if !exists {
			p := store.Photo{
				ID:          sum,
				MimeType:    extracted.MimeType,
				FileSize:    fileSize(path),
				Width:       extracted.Width,
				Height:      extracted.Height,
				DateTaken:   extracted.DateTaken,
				DateSource:  extracted.DateSource,
				HasExif:     extracted.HasExif,
				Orientation: extracted.Orientation,
			}
			if err := store.UpsertPhoto(tx, p); err != nil {
				tx.Rollback()
				return stats, err
			}
			stats.PhotosNew++
		}

		inserted, err := store.InsertPhotoPath(tx, sum, path, filepath.Base(path))
		if err != nil {
			tx.Rollback()
			return stats, err
		}
		if inserted {
			stats.PathsNew++
			pending++
		}

		if pending >= config.BatchSize {
			if err := commit(); err != nil {
				return stats, err
			}
		}
		progress.Add(1)
	}
	progress.Finish()

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing final scan batch: %w", err)
	}
	return stats, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
