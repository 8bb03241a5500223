// Package pipeline implements C11: the resumable stage driver that runs the
// recovery pipeline's DAG in order, tracking completion per stage so a
// partial run can be resumed, re-run, or cleared stage by stage.
package pipeline

import (
	"database/sql"
	"fmt"

	"github.com/benbc/recovery/internal/store"
)

// Options bundles the paths and run-time flags every stage may need. Not
// every stage uses every field.
type Options struct {
	DB         *sql.DB
	SourceRoot string // stage 1 input
	FilesDir   string // stage 1b output / stage 3 input
	ExportDir  string // stage 6 output
	Copy       bool   // stage 6: force copy instead of hardlink

	// BridgeMergeMinBridges is the minimum cross-group should_group pair
	// count stage 4b requires before merging two primary groups (§4.8
	// supplemented feature). Zero means "use config.BridgeMergeMinCount".
	BridgeMergeMinBridges int

	// BoundaryPath is the threshold_boundaries.json file stage p2_2 reads
	// to build the relaxed/strict cell masks.
	BoundaryPath string
}

// Stage is one node of the pipeline DAG.
type Stage struct {
	ID   string
	Name string
	// Optional stages are skipped by RunFrom unless explicitly requested
	// with RunStage.
	Optional bool
	Run      func(*Options) (notes string, photoCount int, err error)
}

// Stages lists every stage in true DAG order (§5's pipeline-order line):
// scan -> link -> individual-rules -> hash -> pair+cluster -> [bridge-merge]
// -> group-rules -> extended hash -> extended pair -> extended cluster ->
// dates -> export. This is NOT the lexicographic order of the stage ids
// (stage "6" sorts before "p2_1" as a string but runs after it).
var Stages = []Stage{
	{ID: "1", Name: "scan", Run: runScan},
	{ID: "1b", Name: "link", Run: runLink},
	{ID: "2", Name: "individual-rules", Run: runIndividualRules},
	{ID: "3", Name: "hash", Run: runHash},
	{ID: "4", Name: "pair+cluster", Run: runPairAndCluster},
	{ID: "4b", Name: "bridge-merge", Optional: true, Run: runBridgeMerge},
	{ID: "5", Name: "group-rules", Run: runGroupRules},
	{ID: "p2_1", Name: "extended-hash", Run: runExtendedHash},
	{ID: "p2_1b", Name: "extended-pair", Run: runExtendedPair},
	{ID: "p2_2", Name: "extended-cluster", Run: runExtendedCluster},
	{ID: "p2_3", Name: "dates", Run: runDates},
	{ID: "6", Name: "export", Run: runExport},
}

func stageByID(id string) (Stage, bool) {
	for _, s := range Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

func indexOf(id string) int {
	for i, s := range Stages {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// RunStage runs exactly one stage by id, regardless of whether it is
// optional, and records its completion.
func RunStage(opts *Options, id string) error {
	stage, ok := stageByID(id)
	if !ok {
		return fmt.Errorf("unknown stage %q", id)
	}
	return runOne(opts, stage)
}

// RunFrom runs every non-optional stage from fromID (inclusive) through the
// end of the DAG, in order, skipping optional stages (e.g. "4b") unless
// includeOptional names them explicitly.
func RunFrom(opts *Options, fromID string, includeOptional map[string]bool) error {
	start := indexOf(fromID)
	if start < 0 {
		return fmt.Errorf("unknown stage %q", fromID)
	}
	for _, stage := range Stages[start:] {
		if stage.Optional && !includeOptional[stage.ID] {
			continue
		}
		if err := runOne(opts, stage); err != nil {
			return fmt.Errorf("stage %s (%s): %w", stage.ID, stage.Name, err)
		}
	}
	return nil
}

func runOne(opts *Options, stage Stage) error {
	notes, count, err := stage.Run(opts)
	if err != nil {
		return fmt.Errorf("stage %s (%s): %w", stage.ID, stage.Name, err)
	}
	return store.RecordStageCompletion(opts.DB, stage.ID, count, notes)
}

// Status reports the completion record of every stage, in DAG order, with
// stages that have never run represented as a zero StageStatus.
func Status(db *sql.DB) ([]store.StageStatus, error) {
	recorded, err := store.AllStageStatuses(db)
	if err != nil {
		return nil, err
	}
	byStage := make(map[string]store.StageStatus, len(recorded))
	for _, s := range recorded {
		byStage[s.Stage] = s
	}
	out := make([]store.StageStatus, len(Stages))
	for i, stage := range Stages {
		if s, ok := byStage[stage.ID]; ok {
			out[i] = s
		} else {
			out[i] = store.StageStatus{Stage: stage.ID}
		}
	}
	return out, nil
}

// Clear drops a stage's materialized output so it will be recomputed on the
// next run.
func Clear(db *sql.DB, id string) error {
	if _, ok := stageByID(id); !ok {
		return fmt.Errorf("unknown stage %q", id)
	}
	return store.ClearStage(db, id)
}
