package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLength = 32

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Kakao    KakaoConfig    `env:",prefix=KAKAO_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Routes   RoutesConfig   `env:",prefix=ROUTES_"`
	Stats    StatsConfig    `env:",prefix=STATS_"`
	BaseURL  string         `env:"BASE_URL,required"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port           string   `env:"PORT,default=8080"`
	Host           string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout    Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout   Duration `env:"WRITE_TIMEOUT,default=15s"`
	MigrateOnStart bool     `env:"MIGRATE_ON_START,default=true"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=mbti_quiz"`
	Password string `env:"PASSWORD,default=mbti_quiz_password"`
	DBName   string `env:"DB,default=mbti_quiz_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	RefreshSecret      string   `env:"REFRESH_SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
}

// KakaoConfig holds the OAuth client. Endpoint overrides are for tests and
// staging; empty values use the public Kakao endpoints.
type KakaoConfig struct {
	ClientID     string   `env:"CLIENT_ID,required"`
	ClientSecret string   `env:"CLIENT_SECRET,required"`
	AuthURL      string   `env:"AUTH_URL"`
	TokenURL     string   `env:"TOKEN_URL"`
	ProfileURL   string   `env:"PROFILE_URL"`
	Timeout      Duration `env:"TIMEOUT,default=10s"`
	StateTTL     Duration `env:"STATE_TTL,default=10m"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=12"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

type RoutesConfig struct {
	ProtectedPages []string `env:"PROTECTED_PAGES,default=/profile,/mypage"`
	AuthPages      []string `env:"AUTH_PAGES,default=/login,/register"`
	ProtectedAPIs  []string `env:"PROTECTED_APIS,default=/api/protected"`
}

type StatsConfig struct {
	// Backend is "redis" or "memory"
	Backend string `env:"BACKEND,default=redis"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// OAuthRedirectURL is the callback registered with Kakao
func (c *Config) OAuthRedirectURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/auth/oauth/callback"
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var config Config

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &config,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var errs []error

	if len(c.JWT.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters long", minSecretLength))
	}
	if len(c.JWT.RefreshSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters long", minSecretLength))
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET"))
	}

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BASE_URL must be an absolute URL, got %q", c.BaseURL))
	}

	switch c.Stats.Backend {
	case "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("STATS_BACKEND must be redis or memory, got %q", c.Stats.Backend))
	}

	return errors.Join(errs...)
}

// LoadPostgres reads only the database settings, for commands that do not
// serve traffic.
func LoadPostgres(ctx context.Context) (*PostgresConfig, error) {
	var config struct {
		Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load postgres configuration: %w", err)
	}

	return &config.Postgres, nil
}
