package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question over the ingested documents",
	Long:  `Retrieves the most relevant passages for a question and generates an answer grounded on them, with source attributions.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("k", 0, "number of passages to retrieve (1-10, default 5)")
	queryCmd.Flags().String("collection", "", "collection to search (defaults to config)")
	queryCmd.Flags().Bool("json", false, "output the full result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]

	k, _ := cmd.Flags().GetInt("k")
	collection, _ := cmd.Flags().GetString("collection")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, _, querier, err := buildPipelines(cfg, true)
	if err != nil {
		return err
	}
	defer reg.CloseAll()

	result, err := querier.Query(ctx, collection, question, k)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range result.Sources {
			fmt.Printf("  %d. %s (chunk %d, distance %.4f)\n",
				src.ChunkNumber, src.Filename, src.ChunkIndex, src.Similarity)
		}
	}
	return nil
}
