// Package mcp exposes document ingestion and retrieval as MCP tools
// for use by MCP-capable clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/passagedb/passage/internal/pipeline"
	"github.com/passagedb/passage/internal/registry"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document Q&A tools.
type Server struct {
	registry *registry.Registry
	ingestor *pipeline.Ingestor
	querier  *pipeline.Querier
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(reg *registry.Registry, ingestor *pipeline.Ingestor, querier *pipeline.Querier) *Server {
	s := &Server{
		registry: reg,
		ingestor: ingestor,
		querier:  querier,
	}

	s.mcp = server.NewMCPServer(
		"passage",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(queryDocumentsTool, s.handleQueryDocuments)
	s.mcp.AddTool(listCollectionsTool, s.handleListCollections)
	s.mcp.AddTool(ingestDocumentTool, s.handleIngestDocument)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
