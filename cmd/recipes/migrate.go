package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/recipes/internal/store"
)

var migrateJSONOutput bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  "Open the configured database, apply any pending migrations, and report the schema version.",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateJSONOutput, "json", false, "Output in JSON format")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return store.With(cmd.Context(), storeOptions(cfg), func(db *store.DB) error {
		version, err := db.SchemaVersion(cmd.Context())
		if err != nil {
			return err
		}

		if migrateJSONOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"driver":  db.Dialect(),
				"version": version,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database (%s) at schema version %d\n", db.Dialect(), version)
		return nil
	})
}
