package store

// ChunkInput is one embedded passage supplied to Insert.
type ChunkInput struct {
	Index  int
	Text   string
	Vector []float32
}

// ChunkRecord is a stored chunk row. RowID is the chunk's dense zero-based
// position in the collection's vector index.
type ChunkRecord struct {
	RowID      int    `json:"row_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// DocumentInfo summarizes one ingested document.
type DocumentInfo struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"num_chunks"`
}

// SearchHit pairs a stored chunk with its squared-Euclidean distance to
// the query vector. Lower distance means more similar.
type SearchHit struct {
	ChunkRecord
	Distance float32 `json:"similarity_score"`
}

// Stats reports the size of a collection.
type Stats struct {
	TotalChunks    int `json:"total_chunks"`
	TotalDocuments int `json:"total_documents"`
}
