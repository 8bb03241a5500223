package store

import (
	"database/sql"
	"fmt"
)

// InsertIndividualDecision records a reject/separate verdict from C6. A photo
// has at most one decision (§3); a second insert for the same photo is a
// no-op rather than an error, so the stage stays idempotent on resume.
func InsertIndividualDecision(tx *sql.Tx, d IndividualDecision) error {
	_, err := tx.Exec(`
		INSERT INTO individual_decisions (photo_id, decision, rule_name)
		VALUES (?, ?, ?)
		ON CONFLICT(photo_id) DO NOTHING`,
		d.PhotoID, d.Decision, d.RuleName)
	if err != nil {
		return fmt.Errorf("inserting individual decision for %s: %w", d.PhotoID, err)
	}
	return nil
}

// PhotoPathsFor returns every recorded source path for a photo.
func PhotoPathsFor(db *sql.DB, photoID string) ([]string, error) {
	rows, err := db.Query(`SELECT source_path FROM photo_paths WHERE photo_id = ?`, photoID)
	if err != nil {
		return nil, fmt.Errorf("querying photo_paths for %s: %w", photoID, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning photo_path for %s: %w", photoID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PhotoWithPaths is the projection C6 evaluates rules against: a photo plus
// every path it is known under.
type PhotoWithPaths struct {
	Photo Photo
	Paths []string
}

// GetPhotosWithoutDecision returns every photo not yet classified by C6,
// ordered by id ascending.
func GetPhotosWithoutDecision(db *sql.DB) ([]PhotoWithPaths, error) {
	rows, err := db.Query(`
		SELECT p.id, p.mime_type, p.file_size, p.width, p.height, p.has_exif
		FROM photos p
		LEFT JOIN individual_decisions d ON p.id = d.photo_id
		WHERE d.photo_id IS NULL
		ORDER BY p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying photos without decision: %w", err)
	}
	defer rows.Close()
	var out []PhotoWithPaths
	for rows.Next() {
		var pw PhotoWithPaths
		var width, height sql.NullInt64
		if err := rows.Scan(&pw.Photo.ID, &pw.Photo.MimeType, &pw.Photo.FileSize, &width, &height, &pw.Photo.HasExif); err != nil {
			return nil, fmt.Errorf("scanning photo without decision: %w", err)
		}
		pw.Photo.Width = int(width.Int64)
		pw.Photo.Height = int(height.Int64)
		out = append(out, pw)
	}
	rows.Close()
	for i := range out {
		paths, err := PhotoPathsFor(db, out[i].Photo.ID)
		if err != nil {
			return nil, err
		}
		out[i].Paths = paths
	}
	return out, nil
}
