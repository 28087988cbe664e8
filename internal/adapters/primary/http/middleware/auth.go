package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lorrc/newsroom-notifications/internal/auth"
	"github.com/lorrc/newsroom-notifications/internal/infrastructure/logging"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// IdentityKey is the key used to store the verified caller in the request context.
const IdentityKey contextKey = "identity"

// DefaultTokenCookie is the cookie the browser client stores its access token in.
const DefaultTokenCookie = "access_token"

// TokenFromRequest extracts a raw credential from the named cookie, the
// Authorization header or the "token" query parameter, in that order.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName == "" {
		cookieName = DefaultTokenCookie
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	return r.URL.Query().Get("token")
}

// JWTMiddleware verifies the caller's credential and stores the identity in
// the request context.
func JWTMiddleware(tm *auth.TokenManager, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := TokenFromRequest(r, cookieName)
			if tokenString == "" {
				writeUnauthorized(w, "Authentication token is required")
				return
			}

			identity, err := tm.VerifyConnectionCredential(tokenString)
			if err != nil {
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity stores a verified identity in ctx.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	ctx = context.WithValue(ctx, IdentityKey, identity)
	return logging.WithUserID(ctx, identity.UserID.String())
}

// GetIdentity returns the verified caller stored by JWTMiddleware.
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(auth.Identity)
	return identity, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"UNAUTHORIZED"}`))
}
