package store

import (
	"database/sql"
	"fmt"
)

// ReplaceDuplicateGroups clears and rewrites the primary duplicate_groups
// table in one transaction, used by C8 after a full clustering pass. Groups
// are the output of an algorithm over the whole kept set, so partial
// incremental updates are not meaningful — each run replaces the table.
func ReplaceDuplicateGroups(tx *sql.Tx, assignments map[string]int64) error {
	if _, err := tx.Exec(`DELETE FROM duplicate_groups`); err != nil {
		return fmt.Errorf("clearing duplicate_groups: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO duplicate_groups (photo_id, group_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing duplicate_groups insert: %w", err)
	}
	defer stmt.Close()
	for photoID, groupID := range assignments {
		if _, err := stmt.Exec(photoID, groupID); err != nil {
			return fmt.Errorf("inserting duplicate_group for %s: %w", photoID, err)
		}
	}
	return nil
}

// ReplaceP2Groups is the P2 (pHash-16/colorHash) analogue of ReplaceDuplicateGroups.
func ReplaceP2Groups(tx *sql.Tx, assignments map[string]int64) error {
	if _, err := tx.Exec(`DELETE FROM p2_groups`); err != nil {
		return fmt.Errorf("clearing p2_groups: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO p2_groups (photo_id, group_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing p2_groups insert: %w", err)
	}
	defer stmt.Close()
	for photoID, groupID := range assignments {
		if _, err := stmt.Exec(photoID, groupID); err != nil {
			return fmt.Errorf("inserting p2_group for %s: %w", photoID, err)
		}
	}
	return nil
}

// ReplaceCompositeGroups is the union-find join of primary and P2 groups (§4.8).
func ReplaceCompositeGroups(tx *sql.Tx, assignments map[string]int64) error {
	if _, err := tx.Exec(`DELETE FROM composite_groups`); err != nil {
		return fmt.Errorf("clearing composite_groups: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO composite_groups (photo_id, group_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing composite_groups insert: %w", err)
	}
	defer stmt.Close()
	for photoID, groupID := range assignments {
		if _, err := stmt.Exec(photoID, groupID); err != nil {
			return fmt.Errorf("inserting composite_group for %s: %w", photoID, err)
		}
	}
	return nil
}

// GetDuplicateGroupAssignments returns the current photo_id -> group_id
// mapping, used by stage 4b to know which primary group each kept photo
// currently belongs to before merging bridged groups.
func GetDuplicateGroupAssignments(db *sql.DB) (map[string]int64, error) {
	rows, err := db.Query(`SELECT photo_id, group_id FROM duplicate_groups`)
	if err != nil {
		return nil, fmt.Errorf("querying duplicate_groups assignments: %w", err)
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var id string
		var gid int64
		if err := rows.Scan(&id, &gid); err != nil {
			return nil, fmt.Errorf("scanning duplicate_group assignment: %w", err)
		}
		out[id] = gid
	}
	return out, rows.Err()
}

// RemapDuplicateGroups rewrites group_id for every photo currently assigned
// to a key in merge, in place (no delete/reinsert, so row count is
// unchanged) — used by stage 4b to fold bridged groups into their canonical
// group without disturbing any other table keyed on group_id.
func RemapDuplicateGroups(tx *sql.Tx, merge map[int64]int64) error {
	stmt, err := tx.Prepare(`UPDATE duplicate_groups SET group_id = ? WHERE group_id = ?`)
	if err != nil {
		return fmt.Errorf("preparing duplicate_groups remap: %w", err)
	}
	defer stmt.Close()
	for from, to := range merge {
		if _, err := stmt.Exec(to, from); err != nil {
			return fmt.Errorf("remapping group %d -> %d: %w", from, to, err)
		}
	}
	return nil
}

// GetAllGroupIDs returns every distinct primary group id, ascending.
func GetAllGroupIDs(db *sql.DB) ([]int64, error) {
	return queryGroupIDs(db, `SELECT DISTINCT group_id FROM duplicate_groups ORDER BY group_id`)
}

// GetAllP2GroupIDs returns every distinct P2 group id, ascending.
func GetAllP2GroupIDs(db *sql.DB) ([]int64, error) {
	return queryGroupIDs(db, `SELECT DISTINCT group_id FROM p2_groups ORDER BY group_id`)
}

// GetAllCompositeGroupIDs returns every distinct composite group id, ascending.
func GetAllCompositeGroupIDs(db *sql.DB) ([]int64, error) {
	return queryGroupIDs(db, `SELECT DISTINCT group_id FROM composite_groups ORDER BY group_id`)
}

func queryGroupIDs(db *sql.DB, q string) ([]int64, error) {
	rows, err := db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("querying group ids: %w", err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning group id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GroupMember is a photo together with the paths it is known under,
// projected for C9's rule evaluation.
type GroupMember struct {
	Photo KeptPhoto
	Paths []string
}

// GetGroupMembers returns every member of a primary group with its paths,
// ordered by photo id ascending.
func GetGroupMembers(db *sql.DB, groupID int64) ([]GroupMember, error) {
	rows, err := db.Query(`
		SELECT p.id, p.perceptual_hash, p.dhash, p.width, p.height, p.file_size, p.has_exif
		FROM duplicate_groups dg
		JOIN photos p ON dg.photo_id = p.id
		WHERE dg.group_id = ?
		ORDER BY p.id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("querying group members for %d: %w", groupID, err)
	}
	var out []GroupMember
	for rows.Next() {
		var m GroupMember
		var width, height sql.NullInt64
		var dhash sql.NullString
		if err := rows.Scan(&m.Photo.ID, &m.Photo.Phash, &dhash, &width, &height, &m.Photo.FileSize, &m.Photo.HasExif); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning group member: %w", err)
		}
		m.Photo.Dhash = dhash.String
		m.Photo.Width = int(width.Int64)
		m.Photo.Height = int(height.Int64)
		out = append(out, m)
	}
	rows.Close()
	for i := range out {
		paths, err := AllPathsForPhoto(db, out[i].Photo.ID)
		if err != nil {
			return nil, err
		}
		out[i].Paths = paths
	}
	return out, nil
}
