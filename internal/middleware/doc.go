// Package middleware provides HTTP middleware for the CritForge API.
//
// The middleware package contains reusable middleware components for
// authentication, rate limiting, and request processing.
//
// # Available Middleware
//
// Core middleware components:
//
//   - Auth: bearer token validation and user extraction
//   - OptionalAuth: like Auth, but anonymous requests pass through
//   - RateLimit: request rate limiting per user/IP
//   - Idempotency: replay cache for retried POST/PATCH requests
//   - RequestID: unique request identifiers
//   - Logger: structured request logging
//   - Recovery: panic recovery
//   - CORS: cross-origin request handling
//   - Compress: gzip response compression
//
// # Composition
//
// Chain applies middleware in order:
//
//	handler := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger,
//	    middleware.Recovery,
//	    middleware.CORS(origins),
//	    middleware.RateLimit(limiter),
//	)
//
// # Context Values
//
// Middleware sets context values accessible via helper functions:
//
//   - GetUserID(ctx): Returns authenticated user ID
//   - GetClaims(ctx): Returns the full token claims
//   - GetRequestID(ctx): Returns unique request identifier
package middleware
