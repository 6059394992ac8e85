package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/pkg/token"
)

// TokenVerifier defines the interface for access token validation
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// ClaimsKey is the context key for token claims
const ClaimsKey contextKey = "claims"

// Auth returns a middleware that validates bearer tokens
func Auth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, model.CodeUnauthorizedAccess, "Missing or malformed authorization header")
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					writeError(w, http.StatusUnauthorized, model.CodeUnauthorizedAccess, "Token expired")
				} else {
					writeError(w, http.StatusUnauthorized, model.CodeUnauthorizedAccess, "Invalid token")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth is like Auth but doesn't require authentication. It sets user
// info in context when a valid token is present and continues anonymously
// otherwise.
func OptionalAuth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok {
				if claims, err := verifier.Verify(raw); err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func withClaims(ctx context.Context, claims *token.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID())
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the token claims from context
func GetClaims(ctx context.Context) *token.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*token.Claims); ok {
		return claims
	}
	return nil
}
