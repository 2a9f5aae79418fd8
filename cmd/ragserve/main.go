// Package main provides the entry point for the ragserve HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ragserve",
	Short: "Retrieval-augmented news classification and chat server",
	Long:  "ragserve classifies news articles and answers questions about them, grounding every response on similar labeled articles retrieved from a vector index.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
