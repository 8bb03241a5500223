package pipeline

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/benbc/recovery/internal/config"
	"github.com/benbc/recovery/internal/store"
)

// hashRecord is one line of an --import-hashes file: a prior run's
// (sha256 -> phash/dhash) pair, keyed by the same content-addressed id this
// run would otherwise recompute.
type hashRecord struct {
	ID    string `json:"id"`
	Phash string `json:"phash"`
	Dhash string `json:"dhash"`
}

// ImportHashesStats summarizes one --import-hashes run.
type ImportHashesStats struct {
	Imported int
	Skipped  int
}

// ImportHashes bulk-imports a JSON-lines file of previously computed
// pHash/dHash pairs, writing a hash only for a photo id that is present in
// this database and still needs one — grounded in pipeline/config.py's
// OLD_DB_PATH / "importing hashes from previous pipeline" comment
// (SPEC_FULL.md SUPPLEMENTED FEATURES #4), adapted to a portable JSON-lines
// export instead of reaching into another SQLite file directly.
func ImportHashes(db *sql.DB, path string) (ImportHashesStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportHashesStats{}, fmt.Errorf("opening hash import file %s: %w", path, err)
	}
	defer f.Close()

	needing, err := store.GetPhotosNeedingPrimaryHash(db)
	if err != nil {
		return ImportHashesStats{}, err
	}
	needHash := make(map[string]bool, len(needing))
	for _, p := range needing {
		needHash[p.PhotoID] = true
	}

	var stats ImportHashesStats
	tx, err := db.Begin()
	if err != nil {
		return ImportHashesStats{}, fmt.Errorf("beginning hash import transaction: %w", err)
	}
	pending := 0
	commit := func() error {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing hash import batch: %w", err)
		}
		tx, err = db.Begin()
		if err != nil {
			return fmt.Errorf("beginning next hash import batch: %w", err)
		}
		pending = 0
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec hashRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			tx.Rollback()
			return stats, fmt.Errorf("parsing hash import line: %w", err)
		}
		if !needHash[rec.ID] || (rec.Phash == "" && rec.Dhash == "") {
			stats.Skipped++
			continue
		}
		if err := store.SetHashes(tx, rec.ID, rec.Phash, rec.Dhash); err != nil {
			tx.Rollback()
			return stats, err
		}
		stats.Imported++
		pending++
		if pending >= config.BatchSize {
			if err := commit(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		tx.Rollback()
		return stats, fmt.Errorf("reading hash import file %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing final hash import batch: %w", err)
	}
	return stats, nil
}
