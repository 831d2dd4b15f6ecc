package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to passage! Let's configure your document store.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding provider.
	embedPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{"openai", "ollama"},
	}
	_, embedStr, err := embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding provider selection: %w", err)
	}
	cfg.EmbeddingProvider = ProviderType(embedStr)

	// 2. Embedding model.
	defaultModel := "text-embedding-3-small"
	if cfg.EmbeddingProvider == ProviderOllama {
		defaultModel = "nomic-embed-text"
	}
	modelPrompt := promptui.Prompt{
		Label:   "Embedding model",
		Default: defaultModel,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}
	cfg.EmbeddingModel = model

	// 3. Embedding dimensions (prefilled for known models).
	dimsDefault := KnownDims(model)
	if dimsDefault == 0 {
		dimsDefault = 768
	}
	dimsPrompt := promptui.Prompt{
		Label:   "Embedding dimensions",
		Default: strconv.Itoa(dimsDefault),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	dimsStr, err := dimsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding dimensions: %w", err)
	}
	cfg.EmbeddingDims, _ = strconv.Atoi(dimsStr)

	// 4. Generation provider.
	genPrompt := promptui.Select{
		Label: "Select generation provider",
		Items: []string{"ollama", "openai"},
	}
	_, genStr, err := genPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("generation provider selection: %w", err)
	}
	cfg.GenerationProvider = ProviderType(genStr)

	genModelDefault := "llama3"
	if cfg.GenerationProvider == ProviderOpenAI {
		genModelDefault = "gpt-4o-mini"
	}
	genModelPrompt := promptui.Prompt{
		Label:   "Generation model",
		Default: genModelDefault,
	}
	genModel, err := genModelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("generation model: %w", err)
	}
	cfg.GenerationModel = genModel

	// 5. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for collections",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("wizard produced invalid config: %w", err)
	}

	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	fmt.Printf("\nConfiguration written to %s\n", path)

	return cfg, nil
}
