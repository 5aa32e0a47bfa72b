package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/groundswell-ai/groundswell"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of groundswell",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("groundswell version %s\n", strings.TrimSpace(groundswell.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
