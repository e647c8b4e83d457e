package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/mapping"
)

// DocumentResult is the outcome of one document in a run.
type DocumentResult struct {
	ID     string
	Report Report
	Saved  bool
	Err    error
}

// RunReport summarizes a run over a repository.
type RunReport struct {
	ID         string
	Started    time.Time
	Finished   time.Time
	DryRun     bool
	Documents  int
	Changed    int
	Saved      int
	Failed     int
	LeafErrors int
	Results    []DocumentResult
}

// Runner applies a mapping to every matching document of a repository.
type Runner struct {
	repo      core.Repository
	processor *Processor
	opts      *options
}

// NewRunner creates a Runner.
func NewRunner(repo core.Repository, m *mapping.Mapping, opts ...Option) *Runner {
	o := buildOptions(opts)
	return &Runner{
		repo:      repo,
		processor: New(m, WithLogger(o.logger)),
		opts:      o,
	}
}

// Processor returns the per-document processor used by the runner.
func (r *Runner) Processor() *Processor { return r.processor }

// Run processes every document selected by the mapping.
//
// A document that fails to load or save is recorded in the report and the run
// goes on. Changed documents are staged in a single transaction when the
// repository supports it; the commit message comes from core.ChangeReasonKey.
// Errors are only returned for listing, cancellation and commit failures.
func (r *Runner) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{
		ID:      uuid.NewString(),
		Started: time.Now(),
		DryRun:  r.opts.dryRun,
	}
	logger := r.opts.logger.With("run", report.ID)

	docs, err := r.repo.List(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list documents: %w", err)
	}

	var ids []string
	for _, d := range docs {
		if r.processor.mapping.Matches(d.ID) {
			ids = append(ids, d.ID)
		}
	}
	logger.Info("run started", "documents", len(ids), "entries", len(r.processor.mapping.Entries), "dry_run", r.opts.dryRun)

	var tx core.Transaction
	if tr, ok := r.repo.(core.Transactional); ok && !r.opts.dryRun {
		tx, err = tr.Begin(ctx)
		if err != nil {
			return report, fmt.Errorf("failed to begin transaction: %w", err)
		}
	}

	results := make([]DocumentResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processOne(gctx, tx, id, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
		return report, err
	}

	report.Results = results
	for _, res := range results {
		report.Documents++
		report.LeafErrors += len(res.Report.Errors)
		if res.Report.Changed() {
			report.Changed++
		}
		if res.Err != nil {
			report.Failed++
		}
	}

	if tx != nil {
		if report.Changed == 0 {
			_ = tx.Rollback(ctx)
		} else {
			msg := fmt.Sprintf("chore(shadow): populate hidden fields in %d documents\n\nRun-ID: %s", report.Changed, report.ID)
			if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
				msg = val
			}
			if err := tx.Commit(ctx, msg); err != nil {
				return report, fmt.Errorf("failed to commit run %s: %w", report.ID, err)
			}
		}
	}

	for i := range report.Results {
		if report.Results[i].Saved {
			report.Saved++
		}
	}
	report.Finished = time.Now()

	logger.Info("run finished",
		"documents", report.Documents,
		"changed", report.Changed,
		"saved", report.Saved,
		"failed", report.Failed,
		"leaf_errors", report.LeafErrors,
		"elapsed", report.Finished.Sub(report.Started))

	return report, nil
}

// ProcessOne loads, processes and saves a single document outside any transaction.
func (r *Runner) ProcessOne(ctx context.Context, id string) DocumentResult {
	return r.processOne(ctx, nil, id, r.opts.logger)
}

func (r *Runner) processOne(ctx context.Context, tx core.Transaction, id string, logger *slog.Logger) DocumentResult {
	res := DocumentResult{ID: id}

	doc, err := r.repo.Get(ctx, id)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", id, err)
		logger.Error("document skipped", "id", id, "error", err)
		return res
	}

	out, rep := r.processor.Process(doc)
	res.Report = rep
	if !rep.Changed() || r.opts.dryRun {
		return res
	}

	if tx != nil {
		err = tx.Save(ctx, out)
	} else {
		err = r.repo.Save(ctx, out)
	}
	if err != nil {
		res.Err = fmt.Errorf("failed to save %s: %w", id, err)
		if errors.Is(err, core.ErrReadOnly) {
			logger.Warn("document not saved", "id", id, "error", err)
		} else {
			logger.Error("document not saved", "id", id, "error", err)
		}
		return res
	}
	res.Saved = true
	return res
}
