package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway and the session API.
type Config struct {
	App      AppConfig
	Gateway  GatewayConfig
	Backend  BackendConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	BaseURL               string
	RequestTimeoutSeconds int
}

// GatewayConfig controls the portal guard in front of the frontend.
type GatewayConfig struct {
	UpstreamURL  string
	CacheBackend string
	CacheSize    int
}

// BackendConfig describes the session validation backend the guard calls.
type BackendConfig struct {
	URL                string
	APIVersion         string
	ValidateTimeoutMS  int
	CacheTTLMS         int
	DegradedPolicy     string
	MaxRedirects       int
	RedirectCounterTTL int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	TimeoutMS int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session token parameters for the session API.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "portal-gateway"),
			Env:                   getEnv("APP_ENV", getEnv("NODE_ENV", "development")),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			BaseURL:               getEnv("NEXTAUTH_URL", "http://localhost:3000"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Gateway: GatewayConfig{
			UpstreamURL:  strings.TrimRight(os.Getenv("PORTAL_UPSTREAM_URL"), "/"),
			CacheBackend: strings.ToLower(getEnv("GATEWAY_CACHE_BACKEND", "memory")),
			CacheSize:    getEnvAsInt("GATEWAY_CACHE_SIZE", 10000),
		},
		Backend: BackendConfig{
			URL:                strings.TrimRight(getEnv("NEXT_PUBLIC_API_URL", getEnv("BACKEND_URL", "http://localhost:8081/api")), "/"),
			APIVersion:         getEnv("API_VERSION", "v1"),
			ValidateTimeoutMS:  getEnvAsInt("BACKEND_VALIDATE_TIMEOUT_MS", 3000),
			CacheTTLMS:         getEnvAsInt("BACKEND_VALIDATION_CACHE_TTL_MS", 5000),
			DegradedPolicy:     strings.ToLower(getEnv("BACKEND_DEGRADED_POLICY", "allow")),
			MaxRedirects:       getEnvAsInt("GATEWAY_MAX_REDIRECTS", 3),
			RedirectCounterTTL: getEnvAsInt("GATEWAY_REDIRECT_COUNTER_TTL_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			PoolSize:  getEnvAsInt("REDIS_POOL_SIZE", 10),
			TimeoutMS: getEnvAsInt("REDIS_TIMEOUT_MS", 2000),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
	}

	switch cfg.Gateway.CacheBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid GATEWAY_CACHE_BACKEND: %q", cfg.Gateway.CacheBackend)
	}
	switch cfg.Backend.DegradedPolicy {
	case "allow", "deny":
	default:
		return nil, fmt.Errorf("invalid BACKEND_DEGRADED_POLICY: %q", cfg.Backend.DegradedPolicy)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production semantics.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ValidateTimeout bounds a single call to the validation endpoint.
func (b BackendConfig) ValidateTimeout() time.Duration {
	if b.ValidateTimeoutMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(b.ValidateTimeoutMS) * time.Millisecond
}

// CacheTTL is how long a validation outcome is reused.
func (b BackendConfig) CacheTTL() time.Duration {
	if b.CacheTTLMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(b.CacheTTLMS) * time.Millisecond
}

// RedirectCounterMaxAge is the lifetime of the redirect counter cookie.
func (b BackendConfig) RedirectCounterMaxAge() time.Duration {
	if b.RedirectCounterTTL <= 0 {
		return time.Minute
	}
	return time.Duration(b.RedirectCounterTTL) * time.Second
}

// Timeout bounds dialing and each command round trip.
func (r RedisConfig) Timeout() time.Duration {
	if r.TimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
