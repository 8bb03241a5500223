// Command recovery drives the photo recovery pipeline: scan, link,
// individual/group rule passes, perceptual hashing and clustering, date
// derivation, and export — each stage resumable and independently runnable.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	humanize "github.com/dustin/go-humanize"
	cli "github.com/urfave/cli/v2"

	"github.com/benbc/recovery/internal/config"
	"github.com/benbc/recovery/internal/pipeline"
	"github.com/benbc/recovery/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "recovery",
		Usage: "content-addressed photo recovery and deduplication pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: "./output",
				Usage: "output root directory holding the database, link tree, and exports",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			statusCommand(),
			stageCommand(),
			clearCommand(),
			importHashesCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openOptions(c *cli.Context) (*store.Store, *pipeline.Options, error) {
	root := c.String("root")
	s, err := store.Open(root, config.DBFileName)
	if err != nil {
		return nil, nil, err
	}
	opts := &pipeline.Options{
		DB:                    s.DB(),
		SourceRoot:            c.String("source"),
		FilesDir:              filepath.Join(root, config.FilesDirName),
		ExportDir:             defaultString(c.String("export-dir"), filepath.Join(root, config.ExportDirName)),
		Copy:                  c.Bool("copy"),
		BridgeMergeMinBridges: c.Int("min-bridges"),
		BoundaryPath:          defaultString(c.String("boundary-file"), filepath.Join(root, config.BoundaryFileName)),
	}
	return s, opts, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run every stage from a starting point through export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Usage: "source directory to scan (required for a fresh run)"},
			&cli.StringFlag{Name: "export-dir", Usage: "override the default <root>/exported destination"},
			&cli.BoolFlag{Name: "copy", Usage: "force a byte copy on export instead of a hardlink"},
			&cli.StringFlag{Name: "boundary-file", Usage: "override the default <root>/threshold_boundaries.json"},
			&cli.StringFlag{Name: "from", Value: "1", Usage: "stage id to start from"},
			&cli.BoolFlag{Name: "bridge-merge", Usage: "include the opt-in stage 4b bridge-merge pass"},
			&cli.IntFlag{Name: "min-bridges", Usage: "override config.BridgeMergeMinCount for stage 4b"},
		},
		Action: func(c *cli.Context) error {
			s, opts, err := openOptions(c)
			if err != nil {
				return err
			}
			defer s.Close()
			include := map[string]bool{"4b": c.Bool("bridge-merge")}
			return pipeline.RunFrom(opts, c.String("from"), include)
		},
	}
}

func stageCommand() *cli.Command {
	return &cli.Command{
		Name:  "stage",
		Usage: "run exactly one stage by id",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Usage: "source directory to scan (stage 1 only)"},
			&cli.StringFlag{Name: "export-dir", Usage: "override the default <root>/exported destination"},
			&cli.BoolFlag{Name: "copy", Usage: "force a byte copy on export instead of a hardlink"},
			&cli.StringFlag{Name: "boundary-file", Usage: "override the default <root>/threshold_boundaries.json"},
			&cli.IntFlag{Name: "min-bridges", Usage: "override config.BridgeMergeMinCount for stage 4b"},
			&cli.StringFlag{Name: "id", Required: true, Usage: "stage id, e.g. 1, 1b, 2, 3, 4, 4b, 5, p2_1, p2_1b, p2_2, p2_3, 6"},
		},
		Action: func(c *cli.Context) error {
			s, opts, err := openOptions(c)
			if err != nil {
				return err
			}
			defer s.Close()
			return pipeline.RunStage(opts, c.String("id"))
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "report the completion state of every stage",
		Action: func(c *cli.Context) error {
			s, opts, err := openOptions(c)
			if err != nil {
				return err
			}
			defer s.Close()
			statuses, err := pipeline.Status(opts.DB)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tCOMPLETED\tPHOTOS\tNOTES")
			for _, st := range statuses {
				completed := "-"
				if !st.CompletedAt.IsZero() {
					completed = st.CompletedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Stage, completed, humanize.Comma(int64(st.PhotoCount)), st.Notes)
			}
			return w.Flush()
		},
	}
}

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "drop a stage's materialized output so it reruns from scratch",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Required: true, Usage: "stage id to clear"},
		},
		Action: func(c *cli.Context) error {
			s, opts, err := openOptions(c)
			if err != nil {
				return err
			}
			defer s.Close()
			return pipeline.Clear(opts.DB, c.String("id"))
		},
	}
}

func importHashesCommand() *cli.Command {
	return &cli.Command{
		Name:  "import-hashes",
		Usage: "bulk-import (sha256 -> phash/dhash) pairs from a prior run's export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "JSON-lines file of {\"id\":..,\"phash\":..,\"dhash\":..} records"},
		},
		Action: func(c *cli.Context) error {
			s, opts, err := openOptions(c)
			if err != nil {
				return err
			}
			defer s.Close()
			stats, err := pipeline.ImportHashes(opts.DB, c.String("file"))
			if err != nil {
				return err
			}
			fmt.Printf("imported=%d skipped=%d\n", stats.Imported, stats.Skipped)
			return nil
		},
	}
}
