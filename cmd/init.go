package cmd

import (
	"github.com/spf13/cobra"

	"github.com/passagedb/passage/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize passage configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure passage and generates a .passage.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
