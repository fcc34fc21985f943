package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/app"
	"github.com/prperemyshlev/mbti-quiz/internal/config"
	"github.com/prperemyshlev/mbti-quiz/migrations"
	"github.com/prperemyshlev/mbti-quiz/pkg/database"
)

// NewServeCmd starts the HTTP API.
func NewServeCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start even if SERVER_MIGRATE_ON_START is set")
	return cmd
}

func runServer(ctx context.Context, skipMigrate bool) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	infra, err := app.NewInfrastructure(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	if cfg.Server.MigrateOnStart && !skipMigrate {
		if err := database.MigrateUp(ctx, infra.Postgres(), migrations.FS); err != nil {
			_ = infra.Shutdown(context.Background())
			return err
		}
		infra.Logger().Info("migrations applied")
	}

	application := app.NewApp(infra, cfg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		infra.Logger().Error("Application failed", zap.Error(err))
		return err
	}

	return nil
}
