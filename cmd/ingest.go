package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/passagedb/passage/internal/extract"
	"github.com/passagedb/passage/internal/pipeline"
	"github.com/passagedb/passage/internal/progress"
	"github.com/passagedb/passage/internal/walker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a file or directory of documents",
	Long: `Chunks and embeds text documents so they can be queried. A directory is
walked recursively; only supported text formats are ingested.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("collection", "", "collection to ingest into (defaults to config)")
	ingestCmd.Flags().StringSlice("include", nil, "glob patterns of files to include")
	ingestCmd.Flags().StringSlice("exclude", nil, "glob patterns of files to exclude")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := args[0]

	collection, _ := cmd.Flags().GetString("collection")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, ingestor, _, err := buildPipelines(cfg, false)
	if err != nil {
		return err
	}
	defer reg.CloseAll()

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}

	// Single file: ingest directly without walking.
	if !info.IsDir() {
		result, err := ingestFile(ctx, ingestor, root, info.Name(), collection, cfg.MaxUploadBytes)
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %s: %d chunks (document %s)\n", root, result.ChunkCount, result.DocumentID)
		return nil
	}

	files, err := walker.Walk(walker.Config{
		RootDir:     root,
		Include:     include,
		Exclude:     exclude,
		MaxFileSize: cfg.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	// Keep only formats the extractor understands.
	var candidates []walker.FileInfo
	for _, f := range files {
		if extract.SupportedExtension(f.RelPath) {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		fmt.Println("No supported documents found.")
		return nil
	}

	reporter := progress.NewReporter()
	reporter.Start(len(candidates))

	var ingested, failed, totalChunks int
	for i, f := range candidates {
		reporter.Update(i+1, f.RelPath)

		result, err := ingestFile(ctx, ingestor, f.Path, f.RelPath, collection, cfg.MaxUploadBytes)
		if err != nil {
			failed++
			if verbose {
				fmt.Fprintf(os.Stderr, "\nskipping %s: %v\n", f.RelPath, err)
			}
			continue
		}
		ingested++
		totalChunks += result.ChunkCount
	}
	reporter.Finish()

	fmt.Printf("Ingested %d documents (%d chunks)", ingested, totalChunks)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()
	return nil
}

func ingestFile(ctx context.Context, ingestor *pipeline.Ingestor, path, name, collection string, maxBytes int64) (*pipeline.IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text, err := extract.Text(name, data, maxBytes)
	if err != nil {
		return nil, err
	}

	return ingestor.Ingest(ctx, collection, name, text)
}
