package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// PhotoPathRow is one photo_paths row projected for date-source gathering
// (C10): the raw source path and filename, independent of any photo fields.
type PhotoPathRow struct {
	PhotoID    string
	SourcePath string
	Filename   string
}

// PrimaryGroupIDFor returns the primary (duplicate_groups) group id a photo
// belongs to, if any.
func PrimaryGroupIDFor(db *sql.DB, photoID string) (int64, bool, error) {
	var id int64
	err := db.QueryRow(`SELECT group_id FROM duplicate_groups WHERE photo_id = ?`, photoID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying primary group for %s: %w", photoID, err)
	}
	return id, true, nil
}

// PhotoIDsInPrimaryGroup returns every photo id assigned to a primary group,
// including photos later rejected by a group rule (§4.10: rejected members
// still carry usable EXIF/date information).
func PhotoIDsInPrimaryGroup(db *sql.DB, groupID int64) ([]string, error) {
	return queryPhotoIDs(db, `SELECT photo_id FROM duplicate_groups WHERE group_id = ?`, groupID)
}

// CompositeGroupIDFor returns the composite group id a photo belongs to, if
// any.
func CompositeGroupIDFor(db *sql.DB, photoID string) (int64, bool, error) {
	var id int64
	err := db.QueryRow(`SELECT group_id FROM composite_groups WHERE photo_id = ?`, photoID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying composite group for %s: %w", photoID, err)
	}
	return id, true, nil
}

// PhotoIDsInCompositeGroup returns every photo id assigned to a composite
// group.
func PhotoIDsInCompositeGroup(db *sql.DB, groupID int64) ([]string, error) {
	return queryPhotoIDs(db, `SELECT photo_id FROM composite_groups WHERE group_id = ?`, groupID)
}

func queryPhotoIDs(db *sql.DB, q string, arg int64) ([]string, error) {
	rows, err := db.Query(q, arg)
	if err != nil {
		return nil, fmt.Errorf("querying photo ids: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning photo id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetPhotosByIDs returns the stored rows for exactly the given photo ids,
// order unspecified. Used by C10 to gather date_taken/date_source/has_exif
// across a date-source expansion set in one query rather than one per id.
func GetPhotosByIDs(db *sql.DB, ids []string) ([]Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.Query(fmt.Sprintf(`
		SELECT id, mime_type, file_size, width, height, date_taken, date_source, has_exif, perceptual_hash, dhash
		FROM photos WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying photos by id: %w", err)
	}
	defer rows.Close()
	var out []Photo
	for rows.Next() {
		var p Photo
		var width, height sql.NullInt64
		var dateTaken, dateSource, phash, dhash sql.NullString
		if err := rows.Scan(&p.ID, &p.MimeType, &p.FileSize, &width, &height, &dateTaken, &dateSource, &p.HasExif, &phash, &dhash); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
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

// GetPhotoPathsByIDs returns every photo_paths row for the given photo ids,
// the raw material C10 re-parses for filename/path-semantic date candidates.
func GetPhotoPathsByIDs(db *sql.DB, ids []string) ([]PhotoPathRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.Query(fmt.Sprintf(`
		SELECT photo_id, source_path, filename FROM photo_paths WHERE photo_id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying photo_paths by id: %w", err)
	}
	defer rows.Close()
	var out []PhotoPathRow
	for rows.Next() {
		var r PhotoPathRow
		if err := rows.Scan(&r.PhotoID, &r.SourcePath, &r.Filename); err != nil {
			return nil, fmt.Errorf("scanning photo_path: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
