package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/shadow"
	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/mapping"
)

var (
	verbose     bool
	adapter     string
	storePath   string
	noGit       bool
	mappingPath string
)

var rootCmd = &cobra.Command{
	Use:   "shadow",
	Short: "Populate hidden shadow fields in document stores",
	Long: `Shadow copies configured source fields of every document into hidden
destination fields, applying a transform (uppercase by default). Paths may use
"*" to address every element of an array.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&adapter, "adapter", shadow.AdapterFS, "Storage adapter (fs, sqlite)")
	flags.StringVar(&storePath, "store", "", "Store location: a directory for fs, a database file for sqlite (default: current store root)")
	flags.BoolVar(&noGit, "no-git", false, "Do not version changes with git")
}

// resolveStore returns the store location from --store, falling back to the
// enclosing store root or the working directory.
func resolveStore() (string, error) {
	if storePath != "" {
		return storePath, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if adapter == shadow.AdapterSQLite {
		return filepath.Join(wd, "shadow.db"), nil
	}
	if root, err := shadow.FindRoot(wd); err == nil {
		return root, nil
	}
	return wd, nil
}

// openStore opens the configured store. Read-only stores never write.
func openStore(readOnly bool) (core.Repository, error) {
	uri, err := resolveStore()
	if err != nil {
		return nil, err
	}
	opts := []shadow.Option{
		shadow.WithAdapter(adapter),
		shadow.WithLogger(slog.Default()),
		shadow.WithReadOnly(readOnly),
		shadow.WithMustExist(true),
	}
	if noGit {
		opts = append(opts, shadow.WithVersioning(false))
	}
	return shadow.Init(uri, opts...)
}

func loadMapping() *mapping.Mapping {
	if mappingPath == "" {
		fatal("Missing mapping", fmt.Errorf("--mapping is required"))
	}
	m, err := shadow.LoadMapping(mappingPath)
	if err != nil {
		fatal("Invalid mapping", err)
	}
	return m
}

func addMappingFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "shadow.yaml", "Mapping file")
}
