package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/marketsquad/authgate/internal/models"
	pkghttp "github.com/marketsquad/authgate/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	claimsContextKey contextKey = "claims"
	tokenContextKey  contextKey = "token"
)

// TokenRevocationChecker defines the interface for checking if tokens are revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Middleware validates bearer tokens, checks the revocation blacklist and
// injects the claims into the request context. Scope restricts the routes
// to tokens issued for one access scope; pass "" to accept any scope.
func Middleware(tm *TokenManager, revocationChecker TokenRevocationChecker, scope string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, token, ok := authenticate(r, tm, revocationChecker)
			if !ok {
				pkghttp.Write(w, http.StatusUnauthorized, pkghttp.CodeAccessDenied, "Access denied", nil)
				return
			}

			if scope != "" && claims.Scope != scope {
				pkghttp.Write(w, http.StatusForbidden, pkghttp.CodeAccessDenied, "Access denied", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims, token)))
		})
	}
}

// OptionalMiddleware injects claims when a valid token is presented but
// lets the request through either way. Logout relies on this: it must
// succeed even when no authenticated token is present.
func OptionalMiddleware(tm *TokenManager, revocationChecker TokenRevocationChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, token, ok := authenticate(r, tm, revocationChecker); ok {
				r = r.WithContext(withClaims(r.Context(), claims, token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, tm *TokenManager, revocationChecker TokenRevocationChecker) (*models.TokenClaims, string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "", false
	}

	tokenString := parts[1]

	claims, err := tm.ValidateToken(tokenString)
	if err != nil {
		return nil, "", false
	}

	if revocationChecker != nil && claims.ID != "" {
		revoked, err := revocationChecker.IsTokenRevoked(r.Context(), claims.ID)
		if err != nil || revoked {
			// Revocation-check failures deny access: a blacklisted token
			// must never slip through on a database hiccup.
			return nil, "", false
		}
	}

	return claims, tokenString, true
}

func withClaims(ctx context.Context, claims *models.TokenClaims, token string) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return context.WithValue(ctx, tokenContextKey, token)
}

// GetClaimsFromContext extracts token claims from the request context
func GetClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(claimsContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetTokenFromContext extracts the raw bearer token from the request context
func GetTokenFromContext(r *http.Request) string {
	token, ok := r.Context().Value(tokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}
