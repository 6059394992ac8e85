// Package config manages application configuration for the CritForge API.
//
// The config package loads and validates configuration from environment
// variables. All configuration is centralized here to provide a single source
// of truth.
//
// # Configuration Loading
//
// Configuration is parsed from the environment via struct tags:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
// Configuration is organized into logical groups:
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS, base URL)
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: token signing settings
//   - RateLimitConfig: request throttling settings
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT          - HTTP server port (default: 8080)
//	SERVER_ENV           - development, production, or test
//	CORS_ALLOWED_ORIGINS - comma-separated list of allowed origins
//	BASE_URL             - public address used in share links
//	DB_HOST / DB_PORT    - SurrealDB endpoint
//	DB_NAMESPACE / DB_DATABASE - SurrealDB namespace and database
//	DB_USER / DB_PASSWORD - database credentials
//	JWT_SECRET           - HMAC signing secret (32+ bytes in production)
//	JWT_EXPIRATION_MINS  - token lifetime in minutes
//	RATE_LIMIT_RATE      - requests allowed per window
//
// Sensible defaults are provided for development; Validate enforces the
// stricter production requirements.
package config
