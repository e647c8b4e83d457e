package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/shadow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of shadow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shadow version %s\n", shadow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
