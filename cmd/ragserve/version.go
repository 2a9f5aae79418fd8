package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqua777/go-ragserve/pipeline"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the service and pipeline version",
	Run: func(*cobra.Command, []string) {
		fmt.Printf("ragserve %s\n", pipeline.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
