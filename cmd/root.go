// Package cmd implements the passage command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "passage",
	Short: "Document Q&A over a local vector index",
	Long: `Passage ingests text documents into per-collection vector indexes and
answers natural language questions over them, citing the source passages
the answer was grounded on. It serves an HTTP API, a CLI, and an MCP
server for AI agent integration.`,
}

func Execute() error {
	// Load .env before any command reads provider API keys.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".passage.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
