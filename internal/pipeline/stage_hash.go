package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	bar "github.com/schollz/progressbar/v3"

	"github.com/benbc/recovery/internal/config"
	"github.com/benbc/recovery/internal/hashing"
	"github.com/benbc/recovery/internal/linker"
	"github.com/benbc/recovery/internal/store"
)

func hashWorkerCount() int {
	n := runtime.NumCPU()
	if n > 2 {
		n -= 2
	}
	if n < 1 {
		n = 1
	}
	return n
}

// resolvePath prefers the content-addressed linked file (stage 1b's output)
// over the recorded source path, since the original may have moved or been
// removed after scanning; it falls back to the source path if the link
// tree hasn't been built yet or is missing this entry.
func resolvePath(filesDir, id, mimeType, fallback string) string {
	linked := linker.LinkPath(filesDir, id, linker.ExtensionFor(mimeType, filepath.Base(fallback)))
	if _, err := os.Stat(linked); err == nil {
		return linked
	}
	return fallback
}

type hashResult struct {
	photoID string
	phash   string
	dhash   string
	ok      bool
}

// runHash implements C2's primary pass (stage "3"): pHash/dHash for every
// photo not yet individually decided, via a worker pool (§5).
func runHash(opts *Options) (string, int, error) {
	photos, err := store.GetPhotosNeedingPrimaryHash(opts.DB)
	if err != nil {
		return "", 0, err
	}
	if len(photos) == 0 {
		return "no photos needed hashing", 0, nil
	}

	jobs := make(chan store.PhotoForHashing, 256)
	results := make(chan hashResult, 256)

	var wg sync.WaitGroup
	workers := hashWorkerCount()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				path := resolvePath(opts.FilesDir, p.PhotoID, p.MimeType, p.SourcePath)
				hashes, ok := hashing.Compute(path, p.Orientation)
				results <- hashResult{photoID: p.PhotoID, phash: hashes.Phash, dhash: hashes.Dhash, ok: ok}
			}
		}()
	}

	go func() {
		for _, p := range photos {
			jobs <- p
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	progress := bar.Default(int64(len(photos)), "Hashing")
	tx, err := opts.DB.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("beginning hash transaction: %w", err)
	}
	pending, hashed, failed := 0, 0, 0
	commit := func() error {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing hash batch: %w", err)
		}
		tx, err = opts.DB.Begin()
		if err != nil {
			return fmt.Errorf("beginning next hash batch: %w", err)
		}
		pending = 0
		return nil
	}

	for r := range results {
		if !r.ok {
			failed++
			progress.Add(1)
			continue
		}
		if err := store.SetHashes(tx, r.photoID, r.phash, r.dhash); err != nil {
			tx.Rollback()
			return "", 0, err
		}
		hashed++
		pending++
		if pending >= config.BatchSize {
			if err := commit(); err != nil {
				return "", 0, err
			}
		}
		progress.Add(1)
	}
	progress.Finish()

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("committing final hash batch: %w", err)
	}
	return fmt.Sprintf("hashed=%d failed=%d", hashed, failed), hashed, nil
}

// runExtendedHash implements C2's P2 pass (stage "p2_1"): pHash-16 and
// colorhash for the kept set only, run after C6/C9 rejections narrow the
// set down (§4.7).
func runExtendedHash(opts *Options) (string, int, error) {
	photos, err := store.GetAcceptedPhotos(opts.DB)
	if err != nil {
		return "", 0, err
	}
	if len(photos) == 0 {
		return "no kept photos", 0, nil
	}

	type job struct {
		id          string
		mimeType    string
		orientation int
		sourcePath  string
	}
	jobs := make(chan job, 256)
	results := make(chan hashResult, 256)

	var wg sync.WaitGroup
	workers := hashWorkerCount()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				path := resolvePath(opts.FilesDir, j.id, j.mimeType, j.sourcePath)
				phash16, colorhash, ok := hashing.ComputeExtended(path, j.orientation)
				results <- hashResult{photoID: j.id, phash: phash16, dhash: colorhash, ok: ok}
			}
		}()
	}

	go func() {
		for _, p := range photos {
			paths, err := store.AllPathsForPhoto(opts.DB, p.ID)
			var sourcePath string
			if err == nil && len(paths) > 0 {
				sourcePath = paths[0]
			}
			jobs <- job{id: p.ID, mimeType: p.MimeType, orientation: p.Orientation, sourcePath: sourcePath}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	progress := bar.Default(int64(len(photos)), "Extended hashing")
	tx, err := opts.DB.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("beginning extended-hash transaction: %w", err)
	}
	pending, hashed, failed := 0, 0, 0
	commit := func() error {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing extended-hash batch: %w", err)
		}
		tx, err = opts.DB.Begin()
		if err != nil {
			return fmt.Errorf("beginning next extended-hash batch: %w", err)
		}
		pending = 0
		return nil
	}

	for r := range results {
		if !r.ok {
			failed++
			progress.Add(1)
			continue
		}
		if err := store.SetExtendedHash(tx, r.photoID, r.phash, r.dhash); err != nil {
			tx.Rollback()
			return "", 0, err
		}
		hashed++
		pending++
		if pending >= config.BatchSize {
			if err := commit(); err != nil {
				return "", 0, err
			}
		}
		progress.Add(1)
	}
	progress.Finish()

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("committing final extended-hash batch: %w", err)
	}
	return fmt.Sprintf("hashed=%d failed=%d", hashed, failed), hashed, nil
}
