package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/config"
	"github.com/prperemyshlev/mbti-quiz/pkg/database"
	"github.com/prperemyshlev/mbti-quiz/pkg/observability"
)

// ServiceName labels logs and metrics
const ServiceName = "mbti-quiz"

// Infrastructure is the set of long-lived connections the quiz server runs on
type Infrastructure interface {
	Postgres() *database.Postgres
	Redis() *database.Redis
	Logger() *zap.Logger
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	postgres       *database.Postgres
	redis          *database.Redis
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider

	// closers run in reverse order on shutdown or a failed start
	closers []func(ctx context.Context) error
}

var _ Infrastructure = (*infrastructure)(nil)

// NewInfrastructure opens the stores and telemetry the server needs. Anything
// already opened is released again when a later step fails.
func NewInfrastructure(ctx context.Context, cfg config.Config) (_ *infrastructure, err error) {
	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	i := &infrastructure{logger: logger}
	defer func() {
		if err != nil {
			_ = i.release(context.Background())
		}
	}()

	i.meterProvider, i.metricsHandler, err = observability.InitTelemetry(ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.closers = append(i.closers, func(ctx context.Context) error {
		return observability.Shutdown(ctx, i.meterProvider, i.logger)
	})

	i.postgres, err = database.NewPostgres(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	i.closers = append(i.closers, func(context.Context) error { return i.postgres.Close() })
	logger.Info("connected to postgres",
		zap.String("host", cfg.Postgres.Host),
		zap.String("database", cfg.Postgres.DBName),
	)

	i.redis, err = database.NewRedis(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	i.closers = append(i.closers, func(context.Context) error { return i.redis.Close() })
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Address()))

	return i, nil
}

func (i *infrastructure) Postgres() *database.Postgres { return i.postgres }

func (i *infrastructure) Redis() *database.Redis { return i.redis }

func (i *infrastructure) Logger() *zap.Logger { return i.logger }

func (i *infrastructure) MetricsHandler() http.Handler { return i.metricsHandler }

func (i *infrastructure) MeterProvider() *metric.MeterProvider { return i.meterProvider }

// Shutdown closes the stores first and flushes metrics and logs last, so
// errors from closing still reach the log.
func (i *infrastructure) Shutdown(ctx context.Context) error {
	return i.release(ctx)
}

func (i *infrastructure) release(ctx context.Context) error {
	var errs []error
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](ctx); err != nil {
			i.logger.Warn("failed to release resource", zap.Error(err))
			errs = append(errs, err)
		}
	}
	i.closers = nil
	return errors.Join(errs...)
}
