package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/shadow/pkg/fieldpath"
)

var expandCmd = &cobra.Command{
	Use:   "expand [id]",
	Short: "Print the concrete field pairs the mapping resolves to in one document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m := loadMapping()

		repo, err := openStore(true)
		if err != nil {
			fatal("Failed to open store", err)
		}
		doc, err := repo.Get(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read document", err)
		}

		tree := fieldpath.CloneMetadata(doc.Metadata)
		for _, e := range m.Entries {
			fmt.Printf("%s\n", e)
			n := 0
			for leaf := range fieldpath.Expand(tree, e.Pair) {
				v, _ := fieldpath.Get(tree, leaf.Source)
				fmt.Printf("  %s = %v (%s)\n", leaf, v, fieldpath.KindOf(v))
				n++
			}
			if n == 0 {
				fmt.Println("  (no leaves)")
			}
		}
	},
}

func init() {
	addMappingFlag(expandCmd)
	rootCmd.AddCommand(expandCmd)
}
