package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordStageCompletion appends a StageState row marking a stage as done
// (§3, §4.3 record_stage). Called only after a stage's own transaction has
// committed, so a crash between the two never leaves a stage falsely marked
// complete (§7 propagation policy).
func RecordStageCompletion(db *sql.DB, stage string, photoCount int, notes string) error {
	_, err := db.Exec(`
		INSERT INTO pipeline_state (stage, completed_at, photo_count, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(stage) DO UPDATE SET completed_at = excluded.completed_at, photo_count = excluded.photo_count, notes = excluded.notes`,
		stage, time.Now(), photoCount, notes)
	if err != nil {
		return fmt.Errorf("recording completion of stage %s: %w", stage, err)
	}
	return nil
}

// GetStageStatus reports whether a stage has completed and, if so, its
// record. ok is false if the stage has never completed (or was cleared).
func GetStageStatus(db *sql.DB, stage string) (status StageStatus, ok bool, err error) {
	var notes sql.NullString
	row := db.QueryRow(`SELECT stage, completed_at, photo_count, notes FROM pipeline_state WHERE stage = ?`, stage)
	err = row.Scan(&status.Stage, &status.CompletedAt, &status.PhotoCount, &notes)
	if err == sql.ErrNoRows {
		return StageStatus{}, false, nil
	}
	if err != nil {
		return StageStatus{}, false, fmt.Errorf("reading stage status %s: %w", stage, err)
	}
	status.Notes = notes.String
	return status, true, nil
}

// AllStageStatuses returns every recorded stage completion, for the
// --status report (§4.11).
func AllStageStatuses(db *sql.DB) ([]StageStatus, error) {
	rows, err := db.Query(`SELECT stage, completed_at, photo_count, notes FROM pipeline_state ORDER BY stage`)
	if err != nil {
		return nil, fmt.Errorf("querying stage statuses: %w", err)
	}
	defer rows.Close()
	var out []StageStatus
	for rows.Next() {
		var s StageStatus
		var notes sql.NullString
		if err := rows.Scan(&s.Stage, &s.CompletedAt, &s.PhotoCount, &notes); err != nil {
			return nil, fmt.Errorf("scanning stage status: %w", err)
		}
		s.Notes = notes.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// clearStatements maps a stage id to the statements that delete its output,
// mirroring pipeline/database.py's clear_stage_data. Stages whose output is
// a column update (hashing) rather than a table are cleared with UPDATE.
var clearStatements = map[string][]string{
	"1":     {`DELETE FROM photo_paths`, `DELETE FROM photos`},
	"1b":    {}, // the files/ link tree on disk is not removed by a clear
	"2":     {`DELETE FROM individual_decisions`},
	"3":     {`UPDATE photos SET perceptual_hash = NULL, dhash = NULL`},
	"4":     {`DELETE FROM duplicate_groups`},
	"4b":    {}, // stage4b bridge-merge doesn't persist new tables, it rewrites duplicate_groups; handled by stage "4" clear
	"5":     {`DELETE FROM group_rejections`, `DELETE FROM aggregated_paths`},
	"6":     {}, // the exported/ tree on disk is not removed by a clear
	"p2_1":  {}, // extended_hashes cleared explicitly below
	"p2_1b": {`DELETE FROM photo_pairs`},
	"p2_2":  {`DELETE FROM p2_groups`, `DELETE FROM composite_groups`},
	"p2_3":  {}, // dates are derived on demand, not persisted as a stage table
}

// ClearStage deletes a stage's own output tables/columns and its StageState
// row so it can be rerun from scratch (§4.3 clear, §4.11 --clear).
func ClearStage(db *sql.DB, stage string) error {
	stmts, known := clearStatements[stage]
	if !known {
		return fmt.Errorf("clearing stage %q: unrecognized stage id", stage)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning clear transaction for stage %s: %w", stage, err)
	}
	defer tx.Rollback()
	if stage == "p2_1" {
		if _, err := tx.Exec(`DELETE FROM extended_hashes`); err != nil {
			return fmt.Errorf("clearing extended_hashes: %w", err)
		}
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("clearing stage %s: %w", stage, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM pipeline_state WHERE stage = ?`, stage); err != nil {
		return fmt.Errorf("clearing stage state for %s: %w", stage, err)
	}
	return tx.Commit()
}
