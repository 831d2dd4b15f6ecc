package pipeline

// IngestResult reports what a successful ingestion produced.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunks_created"`
	Collection string `json:"collection"`
}

// Source is one retrieved passage attributed in a query answer.
// ChunkNumber is the 1-based rank in the result list; Similarity is the
// squared-Euclidean distance to the query (lower = more similar).
type Source struct {
	ChunkNumber int     `json:"chunk_number"`
	Text        string  `json:"text"`
	Filename    string  `json:"filename"`
	DocumentID  string  `json:"document_id"`
	ChunkIndex  int     `json:"chunk_index"`
	Similarity  float32 `json:"similarity_score"`
	Collection  string  `json:"collection"`
}

// QueryResult is the full outcome of one retrieval-augmented query.
// TotalChunks is the collection's chunk count before the query ran.
type QueryResult struct {
	Query       string   `json:"query"`
	Answer      string   `json:"answer"`
	Sources     []Source `json:"sources"`
	TotalChunks int      `json:"total_chunks_in_db"`
	ChunksUsed  int      `json:"chunks_used"`
	Collection  string   `json:"collection_used"`
}
