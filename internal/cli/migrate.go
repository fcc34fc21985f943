package cli

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/config"
	"github.com/prperemyshlev/mbti-quiz/migrations"
	"github.com/prperemyshlev/mbti-quiz/pkg/database"
	"github.com/prperemyshlev/mbti-quiz/pkg/observability"
)

// NewMigrateCmd applies or rolls back the schema.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.Context(), "up", database.MigrateUp)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.Context(), "down", database.MigrateDown)
		},
	})

	return cmd
}

type migrateFunc func(ctx context.Context, p *database.Postgres, migrations fs.FS) error

func runMigration(ctx context.Context, direction string, migrate migrateFunc) error {
	logger, err := observability.InitLogger(envName())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	pgCfg, err := config.LoadPostgres(ctx)
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, pgCfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	if err := migrate(ctx, db, migrations.FS); err != nil {
		return err
	}

	logger.Info("migrations applied", zap.String("direction", direction))
	return nil
}
