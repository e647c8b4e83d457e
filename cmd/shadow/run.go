package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/shadow"
	"github.com/aretw0/shadow/pkg/processor"
)

var (
	runDryRun      bool
	runConcurrency int
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Populate hidden fields in every matching document",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		m := loadMapping()

		repo, err := openStore(runDryRun)
		if err != nil {
			fatal("Failed to open store", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		opts := []shadow.RunOption{
			shadow.WithRunLogger(slog.Default()),
			shadow.WithDryRun(runDryRun),
		}
		if runConcurrency > 0 {
			opts = append(opts, shadow.WithConcurrency(runConcurrency))
		}

		report, err := shadow.Populate(ctx, repo, m, opts...)
		if err != nil {
			fatal("Run failed", err)
		}

		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(newRunView(report)); err != nil {
				fatal("Failed to encode report", err)
			}
		} else {
			printReport(report)
		}

		if report.Failed > 0 {
			os.Exit(2)
		}
	},
}

func init() {
	addMappingFlag(runCmd)
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report changes without saving them")
	runCmd.Flags().IntVarP(&runConcurrency, "concurrency", "c", 0, "Documents processed at once (default: number of CPUs)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output the report as JSON")
	rootCmd.AddCommand(runCmd)
}

func printReport(r processor.RunReport) {
	verb := "saved"
	if r.DryRun {
		verb = "would save"
	}
	fmt.Printf("run %s: %d documents, %d changed, %d %s, %d failed, %d field errors (%s)\n",
		r.ID, r.Documents, r.Changed, r.Saved, verb, r.Failed, r.LeafErrors, r.Finished.Sub(r.Started).Round(time.Millisecond))
	for _, res := range r.Results {
		switch {
		case res.Err != nil:
			fmt.Printf("  FAIL %s: %v\n", res.ID, res.Err)
		case res.Report.Changed():
			fmt.Printf("  %s: %d written\n", res.ID, res.Report.Written)
		}
		for _, le := range res.Report.Errors {
			fmt.Printf("  WARN %s: %v\n", res.ID, le)
		}
	}
}

// runView is the JSON shape of a run report; errors become strings.
type runView struct {
	ID         string         `json:"id"`
	Started    time.Time      `json:"started"`
	Finished   time.Time      `json:"finished"`
	DryRun     bool           `json:"dry_run"`
	Documents  int            `json:"documents"`
	Changed    int            `json:"changed"`
	Saved      int            `json:"saved"`
	Failed     int            `json:"failed"`
	LeafErrors int            `json:"leaf_errors"`
	Results    []documentView `json:"results,omitempty"`
}

type documentView struct {
	ID        string   `json:"id"`
	Written   int      `json:"written"`
	Unchanged int      `json:"unchanged"`
	Skipped   int      `json:"skipped"`
	Saved     bool     `json:"saved"`
	Error     string   `json:"error,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

func newRunView(r processor.RunReport) runView {
	v := runView{
		ID:         r.ID,
		Started:    r.Started,
		Finished:   r.Finished,
		DryRun:     r.DryRun,
		Documents:  r.Documents,
		Changed:    r.Changed,
		Saved:      r.Saved,
		Failed:     r.Failed,
		LeafErrors: r.LeafErrors,
	}
	for _, res := range r.Results {
		d := documentView{
			ID:        res.ID,
			Written:   res.Report.Written,
			Unchanged: res.Report.Unchanged,
			Skipped:   res.Report.Skipped,
			Saved:     res.Saved,
		}
		if res.Err != nil {
			d.Error = res.Err.Error()
		}
		for _, le := range res.Report.Errors {
			d.Warnings = append(d.Warnings, le.Error())
		}
		v.Results = append(v.Results, d)
	}
	return v
}
