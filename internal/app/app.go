package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/config"
	"github.com/prperemyshlev/mbti-quiz/internal/handler"
	"github.com/prperemyshlev/mbti-quiz/internal/oauth"
	"github.com/prperemyshlev/mbti-quiz/internal/repository"
	"github.com/prperemyshlev/mbti-quiz/internal/service"
	"github.com/prperemyshlev/mbti-quiz/internal/utils"
	"github.com/prperemyshlev/mbti-quiz/pkg/database"
	"github.com/prperemyshlev/mbti-quiz/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

type handlers struct {
	auth   *handler.AuthHandler
	oauth  *handler.OAuthHandler
	result *handler.ResultHandler
	health *HealthChecker
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	logger := infra.Logger()

	// Statistics live in Redis unless the memory backend is asked for
	var statsRedis *database.Redis
	if cfg.Stats.Backend == "redis" {
		statsRedis = infra.Redis()
	}
	repos := repository.NewRepositories(infra.Postgres(), statsRedis)

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	kakao := oauth.NewKakao(oauth.KakaoConfig{
		ClientID:     cfg.Kakao.ClientID,
		ClientSecret: cfg.Kakao.ClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL(),
		AuthURL:      cfg.Kakao.AuthURL,
		TokenURL:     cfg.Kakao.TokenURL,
		ProfileURL:   cfg.Kakao.ProfileURL,
		HTTPClient:   &http.Client{Timeout: cfg.Kakao.Timeout.Duration},
	})

	authService := service.NewAuthService(
		repos.User,
		repos.Credential,
		jwtManager,
		cfg.Security.BCryptCost,
		logger,
	)
	oauthService := service.NewOAuthService(kakao, repos.User, repos.SocialAccount, authService, logger)
	statsService := service.NewStatisticsService(repos.Statistics, logger)
	rateLimiter := service.NewRateLimiter(infra.Redis())

	cookies := handler.NewCookieManager(handler.CookieConfig{
		Secure:     cfg.IsProduction(),
		AccessTTL:  jwtManager.AccessTokenExpiry(),
		RefreshTTL: jwtManager.RefreshTokenExpiry(),
		OAuthTTL:   cfg.Kakao.StateTTL.Duration,
	})

	h := handlers{
		auth:   handler.NewAuthHandler(authService, cookies, logger),
		oauth:  handler.NewOAuthHandler(oauthService, cookies, cfg.BaseURL, logger),
		result: handler.NewResultHandler(statsService, logger),
		health: NewHealthChecker(infra),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(otelgin.Middleware(ServiceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	router.Use(handler.RouteGuard(handler.RouteGuardConfig{
		ProtectedPages: cfg.Routes.ProtectedPages,
		AuthPages:      cfg.Routes.AuthPages,
		ProtectedAPIs:  cfg.Routes.ProtectedAPIs,
	}, authService))

	authLimit := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.RouteIPKey,
		logger,
	)
	setupRoutes(router, h, authLimit, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(router *gin.Engine, h handlers, authLimit gin.HandlerFunc, metricsHandler http.Handler) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", h.health.Handler)

	auth := router.Group("/auth")
	{
		auth.POST("/register", authLimit, h.auth.Register)
		auth.POST("/login", authLimit, h.auth.Login)
		auth.POST("/logout", h.auth.Logout)
		auth.POST("/refresh", h.auth.Refresh)
		auth.GET("/me", h.auth.Me)

		auth.GET("/oauth/start", h.oauth.Start)
		auth.GET("/oauth/callback", h.oauth.Callback)
	}

	router.GET("/questions", h.result.Questions)

	results := router.Group("/results")
	{
		results.POST("/submit", h.result.Submit)
		results.GET("/statistics", h.result.Statistics)
		results.POST("/score", h.result.Score)
	}

	protected := router.Group("/api/protected")
	{
		protected.GET("/profile", h.auth.Profile)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
			zap.String("stats_backend", a.config.Stats.Backend),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// The server drains first so in-flight requests still have their connections
	serverErr := a.server.Shutdown(ctx)
	infraErr := a.infra.Shutdown(ctx)

	if err := errors.Join(serverErr, infraErr); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
