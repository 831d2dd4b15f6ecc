package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/passagedb/passage/internal/pipeline"
)

// handleQueryDocuments answers a question over the ingested documents.
func (s *Server) handleQueryDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	k := request.GetInt("k", 0)
	collection := request.GetString("collection", "")

	result, err := s.querier.Query(ctx, collection, query, k)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatQueryResult(result)), nil
}

// handleListCollections lists all collections with their counts.
func (s *Server) handleListCollections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.registry.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing collections failed: %v", err)), nil
	}

	if len(infos) == 0 {
		return mcp.NewToolResultText("No collections exist yet. Ingest a document to create one."), nil
	}

	var b strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&b, "- %s: %d documents, %d chunks\n",
			info.Name, info.TotalDocuments, info.TotalChunks)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleIngestDocument ingests raw text into a collection.
func (s *Server) handleIngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := request.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: filename"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	collection := request.GetString("collection", "")

	result, err := s.ingestor.Ingest(ctx, collection, filename, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Ingested %q into collection %q as document %s (%d chunks).",
		filename, result.Collection, result.DocumentID, result.ChunkCount,
	)), nil
}

// formatQueryResult renders a query result as readable text for the client.
func formatQueryResult(result *pipeline.QueryResult) string {
	var b strings.Builder

	b.WriteString(result.Answer)
	b.WriteString("\n")

	if len(result.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for _, src := range result.Sources {
			fmt.Fprintf(&b, "%d. %s (chunk %d, distance %.4f)\n",
				src.ChunkNumber, src.Filename, src.ChunkIndex, src.Similarity)
		}
	}

	return b.String()
}
