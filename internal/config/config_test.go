package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatal(err)
	}

	def := DefaultConfig()
	if cfg.DataDir != def.DataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, def.DataDir)
	}
	if cfg.ChunkSize != DefaultChunkSize || cfg.ChunkOverlap != DefaultChunkOverlap {
		t.Errorf("chunking = %d/%d, want defaults", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".passage.yml")
	content := `data_dir: /tmp/passage-test
default_collection: research
chunk_size: 500
chunk_overlap: 50
embedding_provider: ollama
embedding_model: nomic-embed-text
embedding_dims: 768
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "/tmp/passage-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.DefaultCollection != "research" {
		t.Errorf("DefaultCollection = %q", cfg.DefaultCollection)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.EmbeddingProvider != ProviderOllama || cfg.EmbeddingDims != 768 {
		t.Errorf("embedding = %s/%d", cfg.EmbeddingProvider, cfg.EmbeddingDims)
	}
	// Fields absent from the file keep their defaults.
	if cfg.GenerationModel != "llama3" {
		t.Errorf("GenerationModel = %q, want default", cfg.GenerationModel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PASSAGE_DATA_DIR", "/custom/data")
	t.Setenv("PASSAGE_DEFAULT_COLLECTION", "envcoll")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "/custom/data" {
		t.Errorf("DataDir = %q, want env override", cfg.DataDir)
	}
	if cfg.DefaultCollection != "envcoll" {
		t.Errorf("DefaultCollection = %q, want env override", cfg.DefaultCollection)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".passage.yml")

	original := DefaultConfig()
	original.DataDir = "/var/lib/passage"
	original.ChunkSize = 750
	original.Server.Port = 9090

	if err := original.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir = %q, want %q", loaded.DataDir, original.DataDir)
	}
	if loaded.ChunkSize != original.ChunkSize {
		t.Errorf("ChunkSize = %d, want %d", loaded.ChunkSize, original.ChunkSize)
	}
	if loaded.Server.Port != original.Server.Port {
		t.Errorf("Port = %d, want %d", loaded.Server.Port, original.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	mutate := func(f func(*Config)) *Config {
		cfg := DefaultConfig()
		f(cfg)
		return cfg
	}

	cases := []struct {
		name string
		cfg  *Config
	}{
		{"empty data dir", mutate(func(c *Config) { c.DataDir = "" })},
		{"empty default collection", mutate(func(c *Config) { c.DefaultCollection = "" })},
		{"collection with slash", mutate(func(c *Config) { c.DefaultCollection = "a/b" })},
		{"zero chunk size", mutate(func(c *Config) { c.ChunkSize = 0 })},
		{"overlap >= size", mutate(func(c *Config) { c.ChunkOverlap = c.ChunkSize })},
		{"negative overlap", mutate(func(c *Config) { c.ChunkOverlap = -1 })},
		{"zero upload limit", mutate(func(c *Config) { c.MaxUploadBytes = 0 })},
		{"bad embedding provider", mutate(func(c *Config) { c.EmbeddingProvider = "azure" })},
		{"empty embedding model", mutate(func(c *Config) { c.EmbeddingModel = "" })},
		{"zero dims", mutate(func(c *Config) { c.EmbeddingDims = 0 })},
		{"bad generation provider", mutate(func(c *Config) { c.GenerationProvider = "bedrock" })},
		{"empty generation model", mutate(func(c *Config) { c.GenerationModel = "" })},
		{"zero port", mutate(func(c *Config) { c.Server.Port = 0 })},
		{"port too high", mutate(func(c *Config) { c.Server.Port = 70000 })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestKnownDims(t *testing.T) {
	if got := KnownDims("text-embedding-3-small"); got != 1536 {
		t.Errorf("KnownDims(text-embedding-3-small) = %d, want 1536", got)
	}
	if got := KnownDims("nomic-embed-text"); got != 768 {
		t.Errorf("KnownDims(nomic-embed-text) = %d, want 768", got)
	}
	if got := KnownDims("mystery-model"); got != 0 {
		t.Errorf("KnownDims(unknown) = %d, want 0", got)
	}
}
