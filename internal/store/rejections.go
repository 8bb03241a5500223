package store

import (
	"database/sql"
	"fmt"
)

// InsertGroupRejection marks a photo as the loser within its primary group,
// per an ordered C9 rule. Idempotent: a second attempt for the same photo
// is a no-op.
func InsertGroupRejection(tx *sql.Tx, r GroupRejection) error {
	_, err := tx.Exec(`
		INSERT INTO group_rejections (photo_id, group_id, rule_name)
		VALUES (?, ?, ?)
		ON CONFLICT(photo_id) DO NOTHING`,
		r.PhotoID, r.GroupID, r.RuleName)
	if err != nil {
		return fmt.Errorf("inserting group rejection for %s: %w", r.PhotoID, err)
	}
	return nil
}

// InsertAggregatedPath copies a rejected photo's path onto the photo that
// survived in its place, preserving provenance (§3, §4.9).
func InsertAggregatedPath(tx *sql.Tx, a AggregatedPath) error {
	_, err := tx.Exec(`
		INSERT INTO aggregated_paths (kept_photo_id, source_path, from_photo_id)
		VALUES (?, ?, ?)`,
		a.KeptPhotoID, a.SourcePath, a.FromPhotoID)
	if err != nil {
		return fmt.Errorf("inserting aggregated path from %s onto %s: %w", a.FromPhotoID, a.KeptPhotoID, err)
	}
	return nil
}

// AggregatedPathsFor returns every path recorded against a kept photo by a
// rejected duplicate.
func AggregatedPathsFor(db *sql.DB, keptPhotoID string) ([]string, error) {
	rows, err := db.Query(`SELECT source_path FROM aggregated_paths WHERE kept_photo_id = ?`, keptPhotoID)
	if err != nil {
		return nil, fmt.Errorf("querying aggregated_paths for %s: %w", keptPhotoID, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning aggregated_path for %s: %w", keptPhotoID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AllPathsForPhoto returns a photo's own PhotoPaths plus every AggregatedPath
// recorded against it — the full provenance set used by group-member
// loading, stage p2_1 and C12 (§8
// provenance round-trip property).
func AllPathsForPhoto(db *sql.DB, photoID string) ([]string, error) {
	own, err := PhotoPathsFor(db, photoID)
	if err != nil {
		return nil, err
	}
	agg, err := AggregatedPathsFor(db, photoID)
	if err != nil {
		return nil, err
	}
	return append(own, agg...), nil
}

// IsGroupRejected reports whether a photo has been rejected within its group.
func IsGroupRejected(db *sql.DB, photoID string) (bool, error) {
	var x int
	err := db.QueryRow(`SELECT 1 FROM group_rejections WHERE photo_id = ?`, photoID).Scan(&x)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking group rejection for %s: %w", photoID, err)
	}
	return true, nil
}

// GetAcceptedPhotos returns every photo not eliminated by either individual
// rules or group rejections — the "kept" set (§3 GroupRejection invariant,
// GLOSSARY "Kept photo").
func GetAcceptedPhotos(db *sql.DB) ([]Photo, error) {
	rows, err := db.Query(`
		SELECT p.id, p.mime_type, p.file_size, p.width, p.height, p.date_taken, p.date_source, p.has_exif, p.orientation, p.perceptual_hash, p.dhash
		FROM photos p
		LEFT JOIN individual_decisions d ON p.id = d.photo_id
		LEFT JOIN group_rejections gr ON p.id = gr.photo_id
		WHERE d.photo_id IS NULL AND gr.photo_id IS NULL
		ORDER BY p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying accepted photos: %w", err)
	}
	defer rows.Close()
	var out []Photo
	for rows.Next() {
		var p Photo
		var width, height sql.NullInt64
		var dateTaken, dateSource, phash, dhash sql.NullString
		if err := rows.Scan(&p.ID, &p.MimeType, &p.FileSize, &width, &height, &dateTaken, &dateSource, &p.HasExif, &p.Orientation, &phash, &dhash); err != nil {
			return nil, fmt.Errorf("scanning accepted photo: %w", err)
		}
		p.Width = int(width.Int64)
		p.Height = int(height.Int64)
		p.DateTaken = dateTaken.String
		p.DateSource = dateSource.String
		p.PerceptualHash = phash.String
		p.Dhash = dhash.String
		out = append(out, p)
	}
	return out, rows.Err()
}
