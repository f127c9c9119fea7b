package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Applies the embedded SQL migrations that have not run yet.`,
		Example: `  # Use DATABASE_URL from the environment or .env
  server migrate

  # Point at another database
  server migrate --database-url postgres://localhost:5432/editor?sslmode=disable`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			log, err := logger.New(os.Getenv("ENVIRONMENT"))
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			migrator, err := database.NewMigrator(databaseURL, log)
			if err != nil {
				return err
			}
			defer migrator.Close()

			if err := migrator.Run(cmd.Context()); err != nil {
				return err
			}
			log.Info("migrations completed", zap.String("component", "migrate"))
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")

	return cmd
}
