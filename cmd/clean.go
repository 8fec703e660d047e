/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/corpclean/internal"
	"github.com/valpere/corpclean/internal/cleaner"
	"github.com/valpere/corpclean/internal/corpus"
	"github.com/valpere/corpclean/internal/fault"
	"github.com/valpere/corpclean/internal/logging"
	"github.com/valpere/corpclean/internal/output"
	"github.com/valpere/corpclean/internal/pipeline"
	"github.com/valpere/corpclean/internal/report"
	"github.com/valpere/corpclean/internal/store"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean every corpus in a directory",
	Long: `Clean the bilingual corpora found in the input directory and write the
cleaned copies to the output directory.

A corpus is a pair of line-aligned files <name>.<source> and <name>.<target>,
optionally xz-compressed (<name>.<lang>.xz). Untranslated drafts are always
dropped; further checks are enabled with flags:

  --max-length / --max-ratio  length and length-ratio limits
  --check-markup             tags and placeholders must match
  --check-artifacts          no model reasoning, echoes or added quotes
  --check-language           each side must be in its declared language

Corpora are cleaned concurrently (at most 10 at a time). The first failure
stops the run; output of unfinished corpora is left in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logging.New("clean")

		corpora, err := corpus.Discover(cfg.InputDir, cfg.SourceLang, cfg.TargetLang)
		if err != nil {
			return fmt.Errorf("failed to scan input directory: %w", err)
		}
		if len(corpora) == 0 {
			fmt.Printf("No %s-%s corpora found in %s\n", cfg.SourceLang, cfg.TargetLang, cfg.InputDir)
		}

		filters, err := buildFilters(cfg.Filters, cfg.SourceLang, cfg.TargetLang)
		if err != nil {
			return err
		}

		var outOpts []output.Option
		if cfg.Compress {
			outOpts = append(outOpts, output.WithCompression())
		}
		factory, err := output.NewDirFactory(cfg.OutputDir, outOpts...)
		if err != nil {
			return err
		}

		rec := &runLog{
			logger: log,
			run: internal.CleaningRun{
				InputDir:    cfg.InputDir,
				OutputDir:   cfg.OutputDir,
				SourceLang:  cfg.SourceLang,
				TargetLang:  cfg.TargetLang,
				Concurrency: cfg.Concurrency,
				Corpora:     len(corpora),
				Status:      internal.RunRunning,
				StartedAt:   time.Now(),
			},
		}

		if !cfg.NoHistory && cfg.DBPath != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
			db, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			id, err := db.SaveRun(ctx, rec.run)
			if err != nil {
				return fmt.Errorf("failed to record run: %w", err)
			}
			rec.run.ID = id
			rec.db = db
		} else {
			rec.run.ID = uuid.NewString()
		}

		p, err := pipeline.New(factory, cfg.SourceLang, cfg.TargetLang,
			pipeline.WithLogger(logging.New("pipeline")),
			pipeline.WithObserver(rec),
			pipeline.WithFilters(filters...),
			pipeline.WithDraftSimilarity(cfg.Filters.DraftSimilarity))
		if err != nil {
			return err
		}
		if err := p.SetConcurrency(cfg.Concurrency); err != nil {
			return err
		}
		for _, c := range corpora {
			p.Add(c)
		}

		runErr := p.Run(ctx)
		rec.finish(runErr)

		if cfg.Report != "" {
			if err := report.Write(cfg.Report, rec.run, rec.results); err != nil {
				log.Warn("report not written", "path", cfg.Report, "error", err)
			} else {
				fmt.Printf("Report written to %s\n", cfg.Report)
			}
		}

		if runErr != nil {
			return runErr
		}

		var written, dropped int
		for _, r := range rec.results {
			written += r.Written
			dropped += r.Dropped
		}
		fmt.Printf("Run %s: cleaned %d corpora, %d pairs written, %d dropped\n",
			rec.run.ID, len(rec.results), written, dropped)
		return nil
	},
}

// runLog collects per-corpus results and mirrors them into the history
// database when one is open.
type runLog struct {
	db      *store.Store
	run     internal.CleaningRun
	results []internal.CorpusResult
	logger  *slog.Logger
}

func (r *runLog) CorpusCleaned(s cleaner.Stats) {
	res := internal.CorpusResult{
		RunID:    r.run.ID,
		Corpus:   s.Corpus,
		Read:     s.Read,
		Written:  s.Written,
		Dropped:  s.DroppedTotal(),
		Digest:   s.Digest,
		Duration: s.Duration,
	}
	r.results = append(r.results, res)

	if r.db == nil {
		return
	}
	if err := r.db.SaveCorpusResult(context.Background(), res); err != nil {
		r.logger.Warn("failed to record corpus result", "corpus", s.Corpus, "error", err)
	}
}

func (r *runLog) finish(runErr error) {
	r.run.Status = runStatus(runErr)
	if runErr != nil {
		r.run.Error = runErr.Error()
	}
	r.run.FinishedAt = time.Now()
	slices.SortFunc(r.results, func(a, b internal.CorpusResult) int {
		return cmp.Compare(a.Corpus, b.Corpus)
	})

	if r.db == nil {
		return
	}
	// The run context may already be cancelled.
	if err := r.db.CompleteRun(context.Background(), r.run.ID, r.run.Status, r.run.Error); err != nil {
		r.logger.Warn("failed to record run status", "run", r.run.ID, "error", err)
	}
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return internal.RunCompleted
	case errors.Is(err, fault.ErrInterrupted):
		return internal.RunInterrupted
	default:
		return internal.RunFailed
	}
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringP("input", "i", "", "Input directory holding the corpora (required)")
	cleanCmd.Flags().StringP("output", "o", "", "Output directory for cleaned corpora (required)")
	cleanCmd.Flags().StringP("source", "s", "", "Source language code, e.g. en (required)")
	cleanCmd.Flags().StringP("target", "t", "", "Target language code, e.g. it (required)")
	cleanCmd.Flags().Int("concurrency", pipeline.HardCap, "Corpora cleaned at the same time (capped at 10)")
	cleanCmd.Flags().Bool("compress", false, "Write xz-compressed output")

	cleanCmd.Flags().Int("max-length", 0, "Drop pairs with a side longer than this many characters (0 = off)")
	cleanCmd.Flags().Float64("max-ratio", 0, "Drop pairs whose length ratio exceeds this value (0 = off)")
	cleanCmd.Flags().Bool("check-markup", false, "Drop pairs whose tags or placeholders differ")
	cleanCmd.Flags().Bool("check-artifacts", false, "Drop pairs whose target holds language-model artifacts")
	cleanCmd.Flags().Bool("check-language", false, "Drop pairs whose sides are not in the declared languages")
	cleanCmd.Flags().Float64("draft-similarity", 0.95, "Similarity at which a target counts as a copy of its source (0 = off)")

	cleanCmd.Flags().String("db", "./data/corpclean.db", "Database path for run history")
	cleanCmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cleanCmd.Flags().String("report", "", "Write a run report to this file (.md or .html)")
}
