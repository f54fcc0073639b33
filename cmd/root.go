package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var envFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recipe-serve",
	Short: "Recipe sharing API server",
	Long: `recipe-serve stores users and their recipes in Postgres and keeps
recipe images in Google Cloud Storage or MinIO.`,
	SilenceUsage: true,
}

// Execute runs the selected subcommand and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file loaded before the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
