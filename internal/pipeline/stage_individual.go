package pipeline

import (
	"fmt"

	bar "github.com/schollz/progressbar/v3"

	"github.com/benbc/recovery/internal/config"
	"github.com/benbc/recovery/internal/rules"
	"github.com/benbc/recovery/internal/store"
)

// runIndividualRules implements C6: evaluate the ordered individual-rule
// list against every photo not yet classified, recording the first match.
func runIndividualRules(opts *Options) (string, int, error) {
	photos, err := store.GetPhotosWithoutDecision(opts.DB)
	if err != nil {
		return "", 0, err
	}

	progress := bar.Default(int64(len(photos)), "Individual rules")
	tx, err := opts.DB.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("beginning individual-rules transaction: %w", err)
	}
	pending, rejected := 0, 0
	commit := func() error {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing individual-rules batch: %w", err)
		}
		tx, err = opts.DB.Begin()
		if err != nil {
			return fmt.Errorf("beginning next individual-rules batch: %w", err)
		}
		pending = 0
		return nil
	}

	for _, pw := range photos {
		if decision, matched := rules.ApplyIndividualRules(pw.Photo, pw.Paths); matched {
			if err := store.InsertIndividualDecision(tx, store.IndividualDecision{
				PhotoID:  pw.Photo.ID,
				Decision: decision.Kind,
				RuleName: decision.RuleName,
			}); err != nil {
				tx.Rollback()
				return "", 0, err
			}
			rejected++
			pending++
		}
		if pending >= config.BatchSize {
			if err := commit(); err != nil {
				return "", 0, err
			}
		}
		progress.Add(1)
	}
	progress.Finish()

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("committing final individual-rules batch: %w", err)
	}
	return fmt.Sprintf("evaluated=%d rejected=%d", len(photos), rejected), len(photos), nil
}
