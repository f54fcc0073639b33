package cmd

import (
	"github.com/spf13/cobra"

	"github.com/krishkalaria12/recipe-serve/config"
	"github.com/krishkalaria12/recipe-serve/database"
	"github.com/krishkalaria12/recipe-serve/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("error closing the database connection", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return err
	}
	logger.Info("database migrated")
	return nil
}
