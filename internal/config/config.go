// Package config provides application configuration loading and management.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from .env and the environment.
type Config struct {
	AppEnv string `mapstructure:"APP_ENV"`
	Port   string `mapstructure:"PORT"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`

	DBMaxOpenConns int `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int `mapstructure:"DB_MAX_IDLE_CONNS"`

	RedisURL string `mapstructure:"REDIS_URL"`

	SessionSecret string `mapstructure:"SESSION_SECRET"`
	BcryptCost    int    `mapstructure:"BCRYPT_COST"`

	UploadDir     string `mapstructure:"UPLOAD_DIR"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	CORSOrigins    string        `mapstructure:"CORS_ORIGINS"`
	PageSize       int           `mapstructure:"PAGE_SIZE"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	UploadTimeout  time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
}

const devSessionSecret = "dev-session-secret-change-me"

var defaults = map[string]any{
	"APP_ENV":           "development",
	"PORT":              "8080",
	"DB_DRIVER":         "postgres",
	"DATABASE_URL":      "",
	"DB_HOST":           "localhost",
	"DB_PORT":           "5432",
	"DB_USER":           "postgres",
	"DB_PASSWORD":       "postgres",
	"DB_NAME":           "forum",
	"DB_SSLMODE":        "disable",
	"DB_MAX_OPEN_CONNS": 100,
	"DB_MAX_IDLE_CONNS": 10,
	"REDIS_URL":         "",
	"SESSION_SECRET":    devSessionSecret,
	"BCRYPT_COST":       10,
	"UPLOAD_DIR":        "./uploads",
	"PUBLIC_BASE_URL":   "",
	"CORS_ORIGINS":      "*",
	"PAGE_SIZE":         10,
	"REQUEST_TIMEOUT":   "15s",
	"UPLOAD_TIMEOUT":    "5m",
}

// LoadConfig loads application configuration from a .env file (if present)
// and environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not found; using environment variables and defaults")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.IsProduction() && c.SessionSecret == devSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	if c.UploadTimeout < c.RequestTimeout {
		return fmt.Errorf("UPLOAD_TIMEOUT (%s) must not be shorter than REQUEST_TIMEOUT (%s)", c.UploadTimeout, c.RequestTimeout)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	return nil
}

// IsProduction reports whether the app runs with production settings
// (secure cookies, JSON logs, release-mode gin).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
