package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/ukydev/fleet-checkpoint/internal/auth"
	"github.com/ukydev/fleet-checkpoint/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// publicPaths are served without a token. Users are created by admins, so
// login is the only open auth endpoint.
var publicPaths = map[string]bool{
	"/api/auth/login": true,
	"/health":         true,
	"/metrics":        true,
}

// AuthMiddleware authenticates requests and enforces role checks.
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the bearer token and stores its claims in the context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		token, err := auth.BearerToken(header)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			Logger(r.Context()).WithError(err).WithField("path", r.URL.Path).Debug("Rejected token")
			if errors.Is(err, auth.ErrExpiredToken) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// require lets the request through when allow accepts the caller's claims.
func requireClaims(allow func(*models.Claims) bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetUserFromContext(r.Context())
		if !ok {
			http.Error(w, "User context not found", http.StatusUnauthorized)
			return
		}
		if !allow(claims) {
			Logger(r.Context()).WithField("username", claims.Username).WithField("role", claims.Role).
				WithField("path", r.URL.Path).Info("Access denied")
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects users whose role cannot manage the fleet.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return requireClaims(func(c *models.Claims) bool { return c.Role.IsAdmin() }, next)
}

// RequirePermission rejects users whose role does not grant p.
func (m *AuthMiddleware) RequirePermission(p models.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return requireClaims(func(c *models.Claims) bool { return c.Role.Can(p) }, next)
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

func shouldSkipAuth(path string) bool {
	return publicPaths[path]
}
