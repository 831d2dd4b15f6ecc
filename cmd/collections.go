package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/passagedb/passage/internal/registry"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage document collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.CloseAll()

		infos, err := reg.List(context.Background())
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No collections exist yet.")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%s\t%d documents\t%d chunks\n", info.Name, info.TotalDocuments, info.TotalChunks)
		}
		return nil
	},
}

var collectionsInfoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Show counts for one collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.CloseAll()

		info, err := reg.Info(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Collection: %s\nDocuments:  %d\nChunks:     %d\n",
			info.Name, info.TotalDocuments, info.TotalChunks)
		return nil
	},
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a collection and all its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.CloseAll()

		if err := reg.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted collection %s\n", args[0])
		return nil
	},
}

// openRegistry builds just the registry, without embedders or generators.
// Collection management never talks to a provider.
func openRegistry() (*registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return registry.New(cfg.DataDir, cfg.EmbeddingDims), nil
}

func init() {
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsInfoCmd)
	collectionsCmd.AddCommand(collectionsDeleteCmd)
	rootCmd.AddCommand(collectionsCmd)
}
