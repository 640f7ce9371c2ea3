package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SscSPs/municipal_tax_ledger/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every pending "up" migration from MIGRATIONS_PATH (default file://migrations)
to the database at PGSQL_URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("PGSQL_URL is required for migrate")
		}
		logger.Info("Running database migrations...")
		_, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
