package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/passagedb/passage/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document ingestion and query tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg, ingestor, querier, err := buildPipelines(cfg, true)
		if err != nil {
			return err
		}
		defer reg.CloseAll()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "passage MCP server started on stdio (data=%s)\n", cfg.DataDir)

		srv := mcpserver.NewServer(reg, ingestor, querier)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
