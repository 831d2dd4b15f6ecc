package config

// Defaults mirror the chunking and upload limits the pipelines document:
// 1000-character chunks with 200-character overlap, 10 MiB uploads.
const (
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultMaxUploadBytes = 10 << 20
)

// embeddingDims maps known embedding models to their output dimensions.
var embeddingDims = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"nomic-embed-text":       768,
	"all-minilm":             384,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:            "data",
		DefaultCollection:  "default",
		ChunkSize:          DefaultChunkSize,
		ChunkOverlap:       DefaultChunkOverlap,
		MaxUploadBytes:     DefaultMaxUploadBytes,
		EmbeddingProvider:  ProviderOpenAI,
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingDims:      1536,
		GenerationProvider: ProviderOllama,
		GenerationModel:    "llama3",
		OllamaBaseURL:      "http://localhost:11434",
		Server: ServerConfig{
			Port:     8000,
			AllowAll: false,
		},
	}
}

// KnownDims returns the dimension count for a known embedding model, or
// zero when the model is not recognized.
func KnownDims(model string) int {
	return embeddingDims[model]
}
