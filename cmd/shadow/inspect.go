package main

import (
	"context"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var inspectContent bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [id]",
	Short: "Dump the metadata tree of a document with its Go types",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := openStore(true)
		if err != nil {
			fatal("Failed to open store", err)
		}
		doc, err := repo.Get(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read document", err)
		}

		cfg := spew.ConfigState{
			Indent:                  "  ",
			SortKeys:                true,
			DisablePointerAddresses: true,
			DisableCapacities:       true,
		}
		fmt.Printf("id: %s\n", doc.ID)
		cfg.Fdump(os.Stdout, doc.Metadata)
		if inspectContent {
			fmt.Println("content:")
			fmt.Println(doc.Content)
		}
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectContent, "content", false, "Also print the document content")
	rootCmd.AddCommand(inspectCmd)
}
