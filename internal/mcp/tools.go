package mcp

import "github.com/mark3labs/mcp-go/mcp"

// queryDocumentsTool defines the query_documents MCP tool.
var queryDocumentsTool = mcp.NewTool("query_documents",
	mcp.WithDescription("Ask a question over the ingested documents. Returns a generated answer with the source passages it was grounded on."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithNumber("k",
		mcp.Description("Number of passages to retrieve (1-10, default 5)"),
	),
	mcp.WithString("collection",
		mcp.Description("Collection to search (defaults to the configured default collection)"),
	),
)

// listCollectionsTool defines the list_collections MCP tool.
var listCollectionsTool = mcp.NewTool("list_collections",
	mcp.WithDescription("List all document collections with their chunk and document counts."),
)

// ingestDocumentTool defines the ingest_document MCP tool.
var ingestDocumentTool = mcp.NewTool("ingest_document",
	mcp.WithDescription("Ingest a text document into a collection so it can be queried."),
	mcp.WithString("filename",
		mcp.Required(),
		mcp.Description("Name of the document, used in source attributions"),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Full text content of the document"),
	),
	mcp.WithString("collection",
		mcp.Description("Collection to ingest into (defaults to the configured default collection)"),
	),
)
