package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret is returned by Load when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required")

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	PublicURL             string
	RequestTimeoutSeconds int
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
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	PasswordMinLength       int
	CapabilitiesFile        string
	ResetSweepSeconds       int
	BootstrapAdminEmail     string
	BootstrapAdminPassword  string
}

// RateLimitPolicy is the budget for one route class.
type RateLimitPolicy struct {
	Window                 time.Duration
	Max                    int
	Message                string
	SkipSuccessfulRequests bool
}

// RateLimitConfig selects the counter backend and the per-class budgets.
type RateLimitConfig struct {
	Backend      string
	SweepSeconds int
	Login        RateLimitPolicy
	API          RateLimitPolicy
	Strict       RateLimitPolicy
	Tracking     RateLimitPolicy
}

// CORSConfig drives the CORS gate.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAgeSeconds    int
}

// NotificationConfig configures outbound notification stubs.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "storefront"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			PublicURL:             strings.TrimRight(getEnv("APP_PUBLIC_URL", "http://localhost:3000"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 7*24*60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 15),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			PasswordMinLength:       getEnvAsInt("AUTH_PASSWORD_MIN_LENGTH", 6),
			CapabilitiesFile:        os.Getenv("AUTH_CAPABILITIES_FILE"),
			ResetSweepSeconds:       getEnvAsInt("AUTH_RESET_SWEEP_SECONDS", 300),
		},
		RateLimit: RateLimitConfig{
			Backend:      strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			SweepSeconds: getEnvAsInt("RATE_LIMIT_SWEEP_SECONDS", 60),
			Login:        loadPolicy("LOGIN", 15*time.Minute, 5, "too many login attempts, please try again later", true),
			API:          loadPolicy("API", time.Minute, 60, "too many requests, please slow down", false),
			Strict:       loadPolicy("STRICT", time.Minute, 10, "too many requests to this endpoint, please try again later", false),
			Tracking:     loadPolicy("TRACKING", 15*time.Minute, 20, "too many tracking requests, please try again later", false),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvAsList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvAsList("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-ID"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAgeSeconds:    getEnvAsInt("CORS_MAX_AGE_SECONDS", 24*60*60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that must stop the process at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		return fmt.Errorf("AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	if c.Auth.PasswordResetTTLMinutes <= 0 {
		return fmt.Errorf("AUTH_PASSWORD_RESET_TTL_MINUTES must be positive")
	}
	if (c.Auth.BootstrapAdminEmail == "") != (c.Auth.BootstrapAdminPassword == "") {
		return fmt.Errorf("AUTH_BOOTSTRAP_ADMIN_EMAIL and AUTH_BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("RATE_LIMIT_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend)
	}
	for name, policy := range map[string]RateLimitPolicy{
		"LOGIN":    c.RateLimit.Login,
		"API":      c.RateLimit.API,
		"STRICT":   c.RateLimit.Strict,
		"TRACKING": c.RateLimit.Tracking,
	} {
		if policy.Window <= 0 || policy.Max <= 0 {
			return fmt.Errorf("rate limit class %s needs a positive window and max", name)
		}
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the bearer token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// PasswordResetTTL returns the reset token lifetime.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// ResetSweepInterval returns how often expired reset tokens are reaped.
func (a AuthConfig) ResetSweepInterval() time.Duration {
	if a.ResetSweepSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.ResetSweepSeconds) * time.Second
}

// SweepInterval returns how often idle rate-limit windows are dropped.
func (r RateLimitConfig) SweepInterval() time.Duration {
	if r.SweepSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.SweepSeconds) * time.Second
}

func loadPolicy(class string, window time.Duration, max int, message string, skipSuccessful bool) RateLimitPolicy {
	prefix := "RATE_LIMIT_" + class + "_"
	return RateLimitPolicy{
		Window:                 time.Duration(getEnvAsInt(prefix+"WINDOW_SECONDS", int(window/time.Second))) * time.Second,
		Max:                    getEnvAsInt(prefix+"MAX", max),
		Message:                getEnv(prefix+"MESSAGE", message),
		SkipSuccessfulRequests: getEnvAsBool(prefix+"SKIP_SUCCESSFUL", skipSuccessful),
	}
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

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
