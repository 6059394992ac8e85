package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/critforge/api/internal/config"
	"github.com/critforge/api/internal/database"
	"github.com/critforge/api/internal/handler"
	"github.com/critforge/api/internal/middleware"
	"github.com/critforge/api/internal/repository"
	"github.com/critforge/api/internal/service"
	"github.com/critforge/api/pkg/token"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize token manager. Development runs tolerate a missing secret
	// with an ephemeral one; tokens then expire on restart.
	secret := []byte(cfg.JWT.Secret)
	if len(secret) < 32 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			slog.Error("failed to generate ephemeral secret", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}
	tokenManager, err := token.NewManager(token.Config{
		Secret: secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.TokenTTL(),
	})
	if err != nil {
		slog.Error("failed to initialize token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	characterRepo := repository.NewCharacterRepository(db)
	encounterRepo := repository.NewEncounterRepository(db)

	// Initialize services
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:       userRepo,
		Tokens:         tokenManager,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	userService := service.NewUserService(service.UserServiceConfig{
		UserRepo: userRepo,
	})

	characterService := service.NewCharacterService(service.CharacterServiceConfig{
		CharacterRepo: characterRepo,
		UserRepo:      userRepo,
	})

	encounterService := service.NewEncounterService(service.EncounterServiceConfig{
		EncounterRepo: encounterRepo,
		UserRepo:      userRepo,
	})

	exportService := service.NewExportService(service.ExportServiceConfig{
		EncounterRepo: encounterRepo,
		CharacterRepo: characterRepo,
		UserRepo:      userRepo,
		BaseURL:       cfg.Server.BaseURL,
		AppVersion:    cfg.Server.AppVersion,
	})

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:    cfg.RateLimit.Rate,
		Window:  cfg.RateLimit.Window,
		Burst:   cfg.RateLimit.Burst,
		Cleanup: cfg.RateLimit.Cleanup,
	})
	defer rateLimiter.Stop()

	// Idempotency replay cache for retried POST/PATCH requests
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	defer idempotencyStore.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	characterHandler := handler.NewCharacterHandler(characterService)
	encounterHandler := handler.NewEncounterHandler(encounterService)
	exportHandler := handler.NewExportHandler(exportService)

	// Create router and register routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", handler.Health)

	// Auth endpoints (public)
	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /v1/auth/redirect", authHandler.Redirect)

	// Auth endpoints (protected)
	auth := middleware.Auth(tokenManager)
	optionalAuth := middleware.OptionalAuth(tokenManager)
	mux.Handle("POST /v1/auth/password", auth(http.HandlerFunc(authHandler.ChangePassword)))

	// Account endpoints
	mux.Handle("GET /v1/users/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("PATCH /v1/users/me", auth(http.HandlerFunc(userHandler.Update)))
	mux.Handle("DELETE /v1/users/me", auth(http.HandlerFunc(userHandler.Delete)))
	mux.Handle("GET /v1/users/me/limits", auth(http.HandlerFunc(userHandler.Limits)))
	mux.Handle("GET /v1/users/{userId}", auth(http.HandlerFunc(userHandler.GetPublic)))

	// Character endpoints
	mux.Handle("POST /v1/characters", auth(http.HandlerFunc(characterHandler.Create)))
	mux.Handle("GET /v1/characters", auth(http.HandlerFunc(characterHandler.List)))
	mux.Handle("GET /v1/characters/search", auth(http.HandlerFunc(characterHandler.Search)))
	mux.Handle("GET /v1/characters/stats", auth(http.HandlerFunc(characterHandler.Stats)))
	mux.Handle("GET /v1/characters/{characterId}", auth(http.HandlerFunc(characterHandler.Get)))
	mux.Handle("PATCH /v1/characters/{characterId}", auth(http.HandlerFunc(characterHandler.Update)))
	mux.Handle("DELETE /v1/characters/{characterId}", auth(http.HandlerFunc(characterHandler.Delete)))
	mux.Handle("POST /v1/characters/{characterId}/clone", auth(http.HandlerFunc(characterHandler.Clone)))

	// Character bulk endpoints
	mux.Handle("POST /v1/characters/bulk", auth(http.HandlerFunc(characterHandler.BulkCreate)))
	mux.Handle("PATCH /v1/characters/bulk", auth(http.HandlerFunc(characterHandler.BulkUpdate)))
	mux.Handle("POST /v1/characters/bulk-delete", auth(http.HandlerFunc(characterHandler.BulkDelete)))

	// Encounter endpoints
	mux.Handle("POST /v1/encounters", auth(http.HandlerFunc(encounterHandler.Create)))
	mux.Handle("GET /v1/encounters", auth(http.HandlerFunc(encounterHandler.List)))
	mux.Handle("GET /v1/encounters/search", auth(http.HandlerFunc(encounterHandler.Search)))
	mux.Handle("GET /v1/encounters/stats", auth(http.HandlerFunc(encounterHandler.Stats)))
	mux.Handle("GET /v1/encounters/shared", auth(http.HandlerFunc(encounterHandler.ListShared)))
	mux.Handle("GET /v1/encounters/shared/{encounterId}", optionalAuth(http.HandlerFunc(encounterHandler.GetShared)))
	mux.Handle("GET /v1/encounters/{encounterId}", auth(http.HandlerFunc(encounterHandler.Get)))
	mux.Handle("PATCH /v1/encounters/{encounterId}", auth(http.HandlerFunc(encounterHandler.Update)))
	mux.Handle("DELETE /v1/encounters/{encounterId}", auth(http.HandlerFunc(encounterHandler.Delete)))
	mux.Handle("POST /v1/encounters/{encounterId}/duplicate", auth(http.HandlerFunc(encounterHandler.Duplicate)))

	// Encounter sharing endpoints
	mux.Handle("POST /v1/encounters/{encounterId}/share", auth(http.HandlerFunc(encounterHandler.Share)))
	mux.Handle("DELETE /v1/encounters/{encounterId}/share/{userId}", auth(http.HandlerFunc(encounterHandler.Unshare)))
	mux.Handle("PUT /v1/encounters/{encounterId}/visibility", auth(http.HandlerFunc(encounterHandler.SetVisibility)))

	// Participant endpoints
	mux.Handle("POST /v1/encounters/{encounterId}/participants", auth(http.HandlerFunc(encounterHandler.AddParticipant)))
	mux.Handle("PATCH /v1/encounters/{encounterId}/participants/{participantId}", auth(http.HandlerFunc(encounterHandler.UpdateParticipant)))
	mux.Handle("DELETE /v1/encounters/{encounterId}/participants/{participantId}", auth(http.HandlerFunc(encounterHandler.RemoveParticipant)))

	// Combat endpoints
	mux.Handle("POST /v1/encounters/{encounterId}/combat/start", auth(http.HandlerFunc(encounterHandler.StartCombat)))
	mux.Handle("POST /v1/encounters/{encounterId}/combat/next", auth(http.HandlerFunc(encounterHandler.NextTurn)))
	mux.Handle("POST /v1/encounters/{encounterId}/combat/end", auth(http.HandlerFunc(encounterHandler.EndCombat)))

	// Export, import, and template endpoints
	mux.Handle("GET /v1/encounters/{encounterId}/export", auth(http.HandlerFunc(exportHandler.Export)))
	mux.Handle("POST /v1/encounters/import", auth(http.HandlerFunc(exportHandler.Import)))
	mux.Handle("POST /v1/encounters/{encounterId}/share-link", auth(http.HandlerFunc(exportHandler.ShareLink)))
	mux.Handle("POST /v1/encounters/{encounterId}/template", auth(http.HandlerFunc(exportHandler.CreateTemplate)))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
