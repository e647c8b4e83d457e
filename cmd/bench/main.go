// Command bench measures a full population run over a generated store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/shadow"
	"github.com/aretw0/shadow/pkg/mapping"
)

func main() {
	count := flag.Int("count", 1000, "Number of documents to generate")
	lines := flag.Int("lines", 10, "Array elements per document")
	concurrency := flag.Int("concurrency", 0, "Runner concurrency (0: number of CPUs)")
	adapter := flag.String("adapter", shadow.AdapterFS, "Storage adapter (fs, sqlite)")
	keep := flag.Bool("keep", false, "Keep the generated store")
	flag.Parse()

	dir, err := os.MkdirTemp("", "shadow_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if *keep {
			fmt.Printf("Keeping bench dir: %s\n", dir)
			return
		}
		os.RemoveAll(dir)
	}()

	uri := dir
	if *adapter == shadow.AdapterSQLite {
		uri = filepath.Join(dir, "bench.db")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc, err := shadow.New(uri,
		shadow.WithAdapter(*adapter),
		shadow.WithAutoInit(true),
		shadow.WithVersioning(false),
		shadow.WithLogger(logger),
	)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Generating %d documents (%d lines each)...\n", *count, *lines)
	start := time.Now()
	ctx := context.Background()
	for i := range *count {
		meta := map[string]any{"customer": fmt.Sprintf("customer %d", i)}
		arr := make([]any, *lines)
		for j := range arr {
			arr[j] = map[string]any{"sku": fmt.Sprintf("sku-%d-%d", i, j), "tags": []any{"a", "b"}}
		}
		meta["lines"] = arr
		if err := svc.SaveDocument(ctx, fmt.Sprintf("orders/%05d.json", i), "", meta); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(start))

	m, err := mapping.Build(mapping.Config{
		Fields: mapping.Fields{
			{Source: "customer", Destination: "@hidden.customer"},
			{Source: "lines.*.sku", Destination: "lines.*.@hidden.sku"},
			{Source: "lines.*.tags.*", Destination: "lines.*.@hidden.tags.*"},
		},
	})
	if err != nil {
		panic(err)
	}

	var opts []shadow.RunOption
	if *concurrency > 0 {
		opts = append(opts, shadow.WithConcurrency(*concurrency))
	}

	for _, pass := range []string{"first", "second"} {
		start = time.Now()
		report, err := shadow.Populate(ctx, svc.Repository(), m, opts...)
		if err != nil {
			panic(err)
		}
		elapsed := time.Since(start)
		summary, _ := json.Marshal(map[string]int{
			"documents": report.Documents, "changed": report.Changed, "saved": report.Saved, "failed": report.Failed,
		})
		fmt.Printf("%s pass: %v (%.0f docs/s) %s\n", pass, elapsed, float64(report.Documents)/elapsed.Seconds(), summary)
	}
}
