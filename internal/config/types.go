package config

// ProviderType identifies an embedding or generation provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level passage configuration, corresponding to .passage.yml.
type Config struct {
	DataDir           string `yaml:"data_dir" koanf:"data_dir"`
	DefaultCollection string `yaml:"default_collection" koanf:"default_collection"`

	ChunkSize    int `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" koanf:"chunk_overlap"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes" koanf:"max_upload_bytes"`

	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDims     int          `yaml:"embedding_dims" koanf:"embedding_dims"`

	GenerationProvider ProviderType `yaml:"generation_provider" koanf:"generation_provider"`
	GenerationModel    string       `yaml:"generation_model" koanf:"generation_model"`

	OllamaBaseURL string `yaml:"ollama_base_url" koanf:"ollama_base_url"`

	Server ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
