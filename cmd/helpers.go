package cmd

import (
	"fmt"
	"os"

	"github.com/passagedb/passage/internal/chunker"
	"github.com/passagedb/passage/internal/config"
	"github.com/passagedb/passage/internal/embeddings"
	"github.com/passagedb/passage/internal/llm"
	"github.com/passagedb/passage/internal/pipeline"
	"github.com/passagedb/passage/internal/registry"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `passage init` to create a config file", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDims, cfg.OllamaBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}

// createGeneratorFromConfig creates an LLM provider for answer generation.
func createGeneratorFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.GenerationProvider), cfg.GenerationModel, cfg.OllamaBaseURL)
}

// buildPipelines wires the registry, ingestor, and querier from config.
// The generator may be nil for commands that only ingest.
func buildPipelines(cfg *config.Config, withGenerator bool) (*registry.Registry, *pipeline.Ingestor, *pipeline.Querier, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating chunker: %w", err)
	}

	reg := registry.New(cfg.DataDir, cfg.EmbeddingDims)
	ingestor := pipeline.NewIngestor(reg, embedder, ch, cfg.DefaultCollection)

	var querier *pipeline.Querier
	if withGenerator {
		generator, err := createGeneratorFromConfig(cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating generator: %w", err)
		}
		querier = pipeline.NewQuerier(reg, embedder, generator, cfg.GenerationModel, cfg.DefaultCollection)
	}

	return reg, ingestor, querier, nil
}
