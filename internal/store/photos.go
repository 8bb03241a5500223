package store

import (
	"database/sql"
	"fmt"
)

// UpsertPhoto inserts a Photo if its id is new. Existing photos are left
// untouched — a Photo is only ever mutated to add hash fields (see
// SetHashes/SetExtendedHash), matching the §3 lifecycle invariant.
func UpsertPhoto(tx *sql.Tx, p Photo) error {
	_, err := tx.Exec(`
		INSERT INTO photos (id, mime_type, file_size, width, height, date_taken, date_source, has_exif, orientation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		p.ID, p.MimeType, p.FileSize, nullIntIfZero(p.Width), nullIntIfZero(p.Height),
		nullStringIfEmpty(p.DateTaken), nullStringIfEmpty(p.DateSource), p.HasExif, p.Orientation)
	if err != nil {
		return fmt.Errorf("upserting photo %s: %w", p.ID, err)
	}
	return nil
}

// InsertPhotoPath appends a path for a photo, skipping silently if the
// (photo_id, source_path) pair was already recorded (idempotent rescan, §4.4).
// Returns true if a new row was inserted.
func InsertPhotoPath(tx *sql.Tx, photoID, sourcePath, filename string) (bool, error) {
	res, err := tx.Exec(`
		INSERT INTO photo_paths (photo_id, source_path, filename)
		VALUES (?, ?, ?)
		ON CONFLICT(photo_id, source_path) DO NOTHING`,
		photoID, sourcePath, filename)
	if err != nil {
		return false, fmt.Errorf("inserting photo_path for %s: %w", photoID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking photo_path insert for %s: %w", photoID, err)
	}
	return n > 0, nil
}

// PhotoExists reports whether a photo with this id has already been recorded.
func PhotoExists(db *sql.DB, photoID string) (bool, error) {
	var x int
	err := db.QueryRow(`SELECT 1 FROM photos WHERE id = ?`, photoID).Scan(&x)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking photo existence %s: %w", photoID, err)
	}
	return true, nil
}

// PathSeen reports whether (photoID, sourcePath) has already been recorded as
// a PhotoPath. The scanner does not call it; it relies on InsertPhotoPath
// skipping pairs that are already recorded.
func PathSeen(db *sql.DB, photoID, sourcePath string) (bool, error) {
	var x int
	err := db.QueryRow(`SELECT 1 FROM photo_paths WHERE photo_id = ? AND source_path = ?`, photoID, sourcePath).Scan(&x)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking path_seen %s/%s: %w", photoID, sourcePath, err)
	}
	return true, nil
}

// SetHashes writes the primary pHash/dHash for a photo once C2 computes them.
func SetHashes(tx *sql.Tx, photoID, phash, dhash string) error {
	_, err := tx.Exec(`UPDATE photos SET perceptual_hash = ?, dhash = ? WHERE id = ?`, phash, dhash, photoID)
	if err != nil {
		return fmt.Errorf("setting hashes for %s: %w", photoID, err)
	}
	return nil
}

// SetExtendedHash records the P2 (phash16, colorhash) pair for a kept photo.
func SetExtendedHash(tx *sql.Tx, photoID, phash16, colorhash string) error {
	_, err := tx.Exec(`
		INSERT INTO extended_hashes (photo_id, phash_16, colorhash)
		VALUES (?, ?, ?)
		ON CONFLICT(photo_id) DO UPDATE SET phash_16 = excluded.phash_16, colorhash = excluded.colorhash`,
		photoID, phash16, colorhash)
	if err != nil {
		return fmt.Errorf("setting extended hash for %s: %w", photoID, err)
	}
	return nil
}

// GetPhotoCount returns the total number of distinct photos recorded.
func GetPhotoCount(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM photos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting photos: %w", err)
	}
	return n, nil
}

// GetPhoto loads a single photo by id.
func GetPhoto(db *sql.DB, id string) (Photo, error) {
	var p Photo
	var width, height sql.NullInt64
	var dateTaken, dateSource, phash, dhash sql.NullString
	err := db.QueryRow(`
		SELECT id, mime_type, file_size, width, height, date_taken, date_source, has_exif, orientation, perceptual_hash, dhash, created_at
		FROM photos WHERE id = ?`, id).Scan(
		&p.ID, &p.MimeType, &p.FileSize, &width, &height, &dateTaken, &dateSource, &p.HasExif, &p.Orientation, &phash, &dhash, &p.CreatedAt)
	if err != nil {
		return Photo{}, fmt.Errorf("loading photo %s: %w", id, err)
	}
	p.Width = int(width.Int64)
	p.Height = int(height.Int64)
	p.DateTaken = dateTaken.String
	p.DateSource = dateSource.String
	p.PerceptualHash = phash.String
	p.Dhash = dhash.String
	return p, nil
}

// PhotoForHashing is the minimal projection C2's worker pool needs: the id,
// mime type and EXIF orientation (to reconstruct its content-addressed file
// path and upright the decoded image), and one representative source path as
// a fallback if the link tree hasn't been built yet.
type PhotoForHashing struct {
	PhotoID     string
	MimeType    string
	Orientation int
	SourcePath  string
}

// GetPhotosNeedingPrimaryHash returns photos that are not individually
// decided and still missing pHash or dHash (§4.2/§4.7 input set), each
// paired with one of its recorded source paths.
func GetPhotosNeedingPrimaryHash(db *sql.DB) ([]PhotoForHashing, error) {
	rows, err := db.Query(`
		SELECT p.id, p.mime_type, p.orientation, MIN(pp.source_path)
		FROM photos p
		JOIN photo_paths pp ON p.id = pp.photo_id
		LEFT JOIN individual_decisions d ON p.id = d.photo_id
		WHERE (p.perceptual_hash IS NULL OR p.dhash IS NULL)
		AND d.photo_id IS NULL
		GROUP BY p.id
		ORDER BY p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying photos needing hash: %w", err)
	}
	defer rows.Close()
	var out []PhotoForHashing
	for rows.Next() {
		var h PhotoForHashing
		if err := rows.Scan(&h.PhotoID, &h.MimeType, &h.Orientation, &h.SourcePath); err != nil {
			return nil, fmt.Errorf("scanning photo needing hash: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// KeptPhoto is the projection used by clustering and the pair engine: photos
// that survived individual rejection and carry a primary hash.
type KeptPhoto struct {
	ID       string
	Phash    string
	Dhash    string
	Width    int
	Height   int
	FileSize int64
	HasExif  bool
}

// GetPhotosForGrouping returns kept photos (not individually decided) that
// have a primary pHash computed, ordered by id ascending for deterministic
// cluster-id assignment (§5, §9).
func GetPhotosForGrouping(db *sql.DB) ([]KeptPhoto, error) {
	rows, err := db.Query(`
		SELECT p.id, p.perceptual_hash, p.dhash, p.width, p.height, p.file_size, p.has_exif
		FROM photos p
		LEFT JOIN individual_decisions d ON p.id = d.photo_id
		WHERE p.perceptual_hash IS NOT NULL AND d.photo_id IS NULL
		ORDER BY p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying photos for grouping: %w", err)
	}
	defer rows.Close()
	var out []KeptPhoto
	for rows.Next() {
		var kp KeptPhoto
		var width, height sql.NullInt64
		var dhash sql.NullString
		if err := rows.Scan(&kp.ID, &kp.Phash, &dhash, &width, &height, &kp.FileSize, &kp.HasExif); err != nil {
			return nil, fmt.Errorf("scanning photo for grouping: %w", err)
		}
		kp.Dhash = dhash.String
		kp.Width = int(width.Int64)
		kp.Height = int(height.Int64)
		out = append(out, kp)
	}
	return out, rows.Err()
}

func nullIntIfZero(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullStringIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
