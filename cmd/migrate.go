package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/mbeckett/herald/internal/config"
	"github.com/mbeckett/herald/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  `Apply the embedded schema to the configured database. Every statement is idempotent, so migrate is safe to re-run.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL environment variable is required")
		}

		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := store.Migrate(context.Background(), db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Schema applied")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
