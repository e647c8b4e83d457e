package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aretw0/shadow"
	"github.com/aretw0/shadow/pkg/core"
)

var (
	watchPattern     string
	watchSkipInitial bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep hidden fields up to date as documents change",
	Long: `Watch runs the mapping over the store once, then reprocesses every created
or modified document until interrupted. Writes made by watch itself produce
no further changes, so they settle after one extra pass.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		m := loadMapping()
		logger := slog.Default()

		repo, err := openStore(false)
		if err != nil {
			fatal("Failed to open store", err)
		}
		svc := core.NewService(repo)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx = context.WithValue(ctx, core.ChangeReasonKey, shadow.ChangeReason(m))

		runner := shadow.NewRunner(repo, m, shadow.WithRunLogger(logger))
		if !watchSkipInitial {
			report, err := runner.Run(ctx)
			if err != nil {
				fatal("Initial run failed", err)
			}
			printReport(report)
		}

		events, err := svc.Watch(ctx, watchPattern)
		if err != nil {
			fatal("Failed to watch store", err)
		}
		logger.Info("watching", "pattern", watchPattern)

		for e := range events {
			if e.Type == core.EventDelete || !m.Matches(e.ID) {
				continue
			}
			res := runner.ProcessOne(ctx, e.ID)
			switch {
			case res.Err != nil && errors.Is(res.Err, core.ErrNotFound):
				// Removed again before we got to it.
			case res.Err != nil:
				logger.Error("reprocess failed", "id", e.ID, "error", res.Err)
			case res.Saved:
				fmt.Printf("%s %s: %d written\n", e.Type, e.ID, res.Report.Written)
			}
		}
	},
}

func init() {
	addMappingFlag(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "Only watch document ids matching this glob")
	watchCmd.Flags().BoolVar(&watchSkipInitial, "skip-initial", false, "Do not run over the whole store before watching")
	rootCmd.AddCommand(watchCmd)
}
