package pairs

import (
	"database/sql"
	"fmt"
	"runtime"
	"sync"

	bar "github.com/schollz/progressbar/v3"

	"github.com/benbc/recovery/internal/config"
	"github.com/benbc/recovery/internal/hashing"
	"github.com/benbc/recovery/internal/store"
)

// chunkSize is the number of linear pair indices handed to one worker call
// at a time — small enough for good load balancing across workers, large
// enough to amortize per-call overhead (§4.7, mirroring the original's
// 10,000-pair chunk).
const chunkSize = 10000

// Item is one photo's hashes as seen by the pair engine. Phash16/Colorhash
// may be empty when only primary hashes are being paired (the base
// clustering regime); HammingDistance is skipped for empty fields and the
// corresponding PhotoPair distance is left at zero.
type Item struct {
	ID              string
	Phash           string
	Dhash           string
	Phash16         string
	Colorhash       string
	HasPrimaryGroup bool
	PrimaryGroup    int64
}

// Stats summarizes one pair-computation run.
type Stats struct {
	TotalPairs     int64
	SameGroupPairs int64
}

type chunkRange struct {
	start, end int64
}

// computeChunk computes every pair in [start, end) over items, skipping any
// hash field that's empty on either side of the pair.
func computeChunk(items []Item, r chunkRange) ([]store.PhotoPair, error) {
	n := int64(len(items))
	out := make([]store.PhotoPair, 0, r.end-r.start)
	for k := r.start; k < r.end; k++ {
		i, j := IndexToIJ(k, n)
		a, b := items[i], items[j]
		id1, id2 := a.ID, b.ID
		if id2 < id1 {
			id1, id2 = id2, id1
			a, b = b, a
		}

		pair := store.PhotoPair{PhotoID1: id1, PhotoID2: id2}
		pair.SamePrimaryGroup = a.HasPrimaryGroup && b.HasPrimaryGroup && a.PrimaryGroup == b.PrimaryGroup

		var err error
		if pair.PhashDist, err = distanceOrZero(a.Phash, b.Phash); err != nil {
			return nil, fmt.Errorf("phash distance %s/%s: %w", id1, id2, err)
		}
		if pair.DhashDist, err = distanceOrZero(a.Dhash, b.Dhash); err != nil {
			return nil, fmt.Errorf("dhash distance %s/%s: %w", id1, id2, err)
		}
		if pair.Phash16Dist, err = distanceOrZero(a.Phash16, b.Phash16); err != nil {
			return nil, fmt.Errorf("phash16 distance %s/%s: %w", id1, id2, err)
		}
		if pair.ColorhashDist, err = distanceOrZero(a.Colorhash, b.Colorhash); err != nil {
			return nil, fmt.Errorf("colorhash distance %s/%s: %w", id1, id2, err)
		}
		out = append(out, pair)
	}
	return out, nil
}

func distanceOrZero(a, b string) (int, error) {
	if a == "" || b == "" {
		return 0, nil
	}
	return hashing.HammingDistance(a, b)
}

// Run computes pairwise distances over items using a worker pool (§5: "C7
// pair ... worker pool"), then funnels results into the store in batches of
// config.PairBatchSize rows, building indexes only after the bulk insert
// completes (§4.7).
func Run(db *sql.DB, items []Item) (Stats, error) {
	n := int64(len(items))
	total := TotalPairs(n)
	if total == 0 {
		return Stats{}, nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > 2 {
		numWorkers -= 2
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan chunkRange, numWorkers*2)
	results := make(chan []store.PhotoPair, numWorkers*2)
	errs := make(chan error, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				chunk, err := computeChunk(items, r)
				if err != nil {
					errs <- err
					return
				}
				results <- chunk
			}
		}()
	}

	go func() {
		for start := int64(0); start < total; start += chunkSize {
			end := start + chunkSize
			if end > total {
				end = total
			}
			jobs <- chunkRange{start: start, end: end}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	progress := bar.Default(total, "Computing pairs")

	var stats Stats
	var batch []store.PhotoPair
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("beginning pair transaction: %w", err)
	}

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.InsertPairsBatch(tx, batch); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing pair batch: %w", err)
		}
		tx, err = db.Begin()
		if err != nil {
			return fmt.Errorf("beginning next pair transaction: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for chunk := range results {
		batch = append(batch, chunk...)
		stats.TotalPairs += int64(len(chunk))
		for _, p := range chunk {
			if p.SamePrimaryGroup {
				stats.SameGroupPairs++
			}
		}
		progress.Add(len(chunk))
		if len(batch) >= config.PairBatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	progress.Finish()

	select {
	case err := <-errs:
		tx.Rollback()
		return stats, err
	default:
	}

	if err := flush(); err != nil {
		return stats, err
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing final pair batch: %w", err)
	}

	if err := store.CreatePairIndexes(db); err != nil {
		return stats, err
	}
	return stats, nil
}

// ItemsFromKept adapts the base (primary-hash) kept-photo projection for the
// pair engine.
func ItemsFromKept(photos []store.KeptPhoto, groupOf map[string]int64) []Item {
	items := make([]Item, len(photos))
	for i, p := range photos {
		item := Item{ID: p.ID, Phash: p.Phash, Dhash: p.Dhash}
		if gid, ok := groupOf[p.ID]; ok {
			item.HasPrimaryGroup = true
			item.PrimaryGroup = gid
		}
		items[i] = item
	}
	return items
}

// ItemsFromExtended adapts the P2 (extended-hash) kept-photo projection for
// the pair engine.
func ItemsFromExtended(photos []store.KeptWithExtendedHash) []Item {
	items := make([]Item, len(photos))
	for i, p := range photos {
		item := Item{ID: p.ID, Phash: p.Phash, Dhash: p.Dhash, Phash16: p.Phash16, Colorhash: p.Colorhash}
		if p.PrimaryGroup.Valid {
			item.HasPrimaryGroup = true
			item.PrimaryGroup = p.PrimaryGroup.Int64
		}
		items[i] = item
	}
	return items
}
