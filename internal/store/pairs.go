package store

import (
	"database/sql"
	"fmt"
)

// InsertPairsBatch bulk-inserts a chunk of materialized pair distances inside
// an existing transaction. Callers batch ~500,000 rows per call (§4.7) to
// bound transaction size on large corpora.
func InsertPairsBatch(tx *sql.Tx, pairs []PhotoPair) error {
	// The primary pass (stage 4) and the extended pass (stage p2_1b) both
	// write rows for the same kept set, at different times, to different
	// columns of the same pair: the extended pass must enrich an
	// already-materialized row with phash16/colorhash rather than be
	// silently dropped by it.
	stmt, err := tx.Prepare(`
		INSERT INTO photo_pairs (photo_id_1, photo_id_2, same_primary_group, phash_dist, dhash_dist, phash16_dist, colorhash_dist)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(photo_id_1, photo_id_2) DO UPDATE SET
			phash16_dist = COALESCE(excluded.phash16_dist, photo_pairs.phash16_dist),
			colorhash_dist = COALESCE(excluded.colorhash_dist, photo_pairs.colorhash_dist)`)
	if err != nil {
		return fmt.Errorf("preparing photo_pairs insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range pairs {
		if _, err := stmt.Exec(p.PhotoID1, p.PhotoID2, p.SamePrimaryGroup, p.PhashDist, p.DhashDist,
			nullIntIfZero(p.Phash16Dist), nullIntIfZero(p.ColorhashDist)); err != nil {
			return fmt.Errorf("inserting pair (%s,%s): %w", p.PhotoID1, p.PhotoID2, err)
		}
	}
	return nil
}

// CreatePairIndexes builds the lookup indexes used by the cluster engine.
// Called after the bulk insert completes (§4.7: "indexes are built after the
// bulk insert") so the insert itself isn't slowed by index maintenance.
func CreatePairIndexes(db *sql.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_pairs_phash ON photo_pairs(phash_dist)`,
		`CREATE INDEX IF NOT EXISTS idx_pairs_dhash ON photo_pairs(dhash_dist)`,
		`CREATE INDEX IF NOT EXISTS idx_pairs_phash16 ON photo_pairs(phash16_dist)`,
		`CREATE INDEX IF NOT EXISTS idx_pairs_colorhash ON photo_pairs(colorhash_dist)`,
		`CREATE INDEX IF NOT EXISTS idx_pairs_same_group ON photo_pairs(same_primary_group)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("creating pair index: %w", err)
		}
	}
	return nil
}

// PairCount returns the number of materialized pairs currently stored.
func PairCount(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM photo_pairs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting photo_pairs: %w", err)
	}
	return n, nil
}

// ClearPairs drops every materialized pair, used by --clear on the pair stage.
func ClearPairs(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM photo_pairs`); err != nil {
		return fmt.Errorf("clearing photo_pairs: %w", err)
	}
	return nil
}

// GetAllPairs loads every materialized pair, keyed by "id1|id2" for O(1)
// should_group / cell-mask lookups during clustering. Pre-loading is the
// right choice here (§9: "the choice should be explicit per stage based on
// expected cardinality") since the cluster engine's priority queue needs
// random access to arbitrary pairs, not a forward scan.
func GetAllPairs(db *sql.DB) (map[string]PhotoPair, error) {
	rows, err := db.Query(`
		SELECT photo_id_1, photo_id_2, same_primary_group, phash_dist, dhash_dist, phash16_dist, colorhash_dist
		FROM photo_pairs`)
	if err != nil {
		return nil, fmt.Errorf("querying photo_pairs: %w", err)
	}
	defer rows.Close()
	out := make(map[string]PhotoPair)
	for rows.Next() {
		var p PhotoPair
		var phash16, colorhash sql.NullInt64
		if err := rows.Scan(&p.PhotoID1, &p.PhotoID2, &p.SamePrimaryGroup, &p.PhashDist, &p.DhashDist, &phash16, &colorhash); err != nil {
			return nil, fmt.Errorf("scanning photo_pair: %w", err)
		}
		p.Phash16Dist = int(phash16.Int64)
		p.ColorhashDist = int(colorhash.Int64)
		out[PairKey(p.PhotoID1, p.PhotoID2)] = p
	}
	return out, rows.Err()
}

// PairKey builds the canonical lookup key for a pair, independent of the
// order the two ids are supplied in (photo_id_1 < photo_id_2 is the storage
// invariant from §3, but callers may look up either order).
func PairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// KeptWithExtendedHash is the projection used by the P2 pair/cluster stages.
type KeptWithExtendedHash struct {
	ID            string
	Phash         string
	Dhash         string
	Phash16       string
	Colorhash     string
	PrimaryGroup  sql.NullInt64
}

// GetKeptPhotosWithExtendedHashes returns accepted photos that have both
// primary and extended hashes, each annotated with its primary group id if
// any, for P2 same-group bookkeeping (§4.7 materialized pair source).
func GetKeptPhotosWithExtendedHashes(db *sql.DB) ([]KeptWithExtendedHash, error) {
	rows, err := db.Query(`
		SELECT p.id, p.perceptual_hash, p.dhash, eh.phash_16, eh.colorhash, dg.group_id
		FROM photos p
		JOIN extended_hashes eh ON eh.photo_id = p.id
		LEFT JOIN duplicate_groups dg ON dg.photo_id = p.id
		LEFT JOIN individual_decisions d ON d.photo_id = p.id
		LEFT JOIN group_rejections gr ON gr.photo_id = p.id
		WHERE d.photo_id IS NULL AND gr.photo_id IS NULL
		AND p.perceptual_hash IS NOT NULL AND p.dhash IS NOT NULL
		ORDER BY p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying kept photos with extended hashes: %w", err)
	}
	defer rows.Close()
	var out []KeptWithExtendedHash
	for rows.Next() {
		var k KeptWithExtendedHash
		if err := rows.Scan(&k.ID, &k.Phash, &k.Dhash, &k.Phash16, &k.Colorhash, &k.PrimaryGroup); err != nil {
			return nil, fmt.Errorf("scanning kept photo with extended hash: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
