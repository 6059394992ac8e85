package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	Env            string        `env:"SERVER_ENV" envDefault:"development"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	// BaseURL is the public address share links point at.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	// AppVersion is stamped into export metadata.
	AppVersion string `env:"APP_VERSION" envDefault:"dev"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"critforge"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret         string `env:"JWT_SECRET"`
	Issuer         string `env:"JWT_ISSUER" envDefault:"critforge-api"`
	ExpirationMins int    `env:"JWT_EXPIRATION_MINS" envDefault:"1440"`
}

// RateLimitConfig holds request throttling settings
type RateLimitConfig struct {
	Rate    int           `env:"RATE_LIMIT_RATE" envDefault:"300"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	Burst   int           `env:"RATE_LIMIT_BURST" envDefault:"50"`
	Cleanup time.Duration `env:"RATE_LIMIT_CLEANUP" envDefault:"5m"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if c.Server.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL is required"))
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// Token signing is critical: a short secret in production is a
	// misconfiguration, not a default to paper over.
	if c.IsProduction() && len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}
	if c.JWT.Issuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required"))
	}

	if c.RateLimit.Rate <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RATE must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TokenTTL returns the configured token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpirationMins) * time.Minute
}
