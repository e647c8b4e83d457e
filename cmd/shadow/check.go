package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a mapping file and print its entries",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		m := loadMapping()

		fmt.Printf("transform:  %s\n", m.Transform)
		fmt.Printf("hidden key: %s\n", m.HiddenKey)
		if len(m.Match) > 0 {
			fmt.Printf("match:      %s\n", strings.Join(m.Match, ", "))
		}
		fmt.Printf("entries:    %d\n", len(m.Entries))
		for _, e := range m.Entries {
			fmt.Printf("  %s (wildcards: %d)\n", e, e.Pair.Source.Wildcards())
		}
	},
}

func init() {
	addMappingFlag(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
