package session

import (
	"context"
	"net/http"

	"github.com/brightlead/site/pkg/bl/logger"
)

// LoginPath is where unauthenticated admin requests are redirected.
const LoginPath = "/admin/login"

// DefaultUsername is the generic label shown when no username is
// persisted alongside the token.
const DefaultUsername = "管理员"

type contextKey string

const (
	tokenKey    = contextKey("admin_token")
	usernameKey = contextKey("admin_username")
)

// Guard gates admin views on the presence of a persisted token.
// Authenticated state is inferred purely from presence, not re-validated
// against the backend; the first 401 on an admin call demotes instead.
func Guard(vault Service, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := vault.Token(r.Context())
			if err != nil {
				log.Errorf("cannot read session vault: %v", err)
			}
			if token == "" {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			username, err := vault.Username(r.Context())
			if err != nil {
				log.Errorf("cannot read session username: %v", err)
			}
			if username == "" {
				username = DefaultUsername
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, tokenKey, token)
			ctx = context.WithValue(ctx, usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext extracts the session token injected by Guard.
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey).(string); ok {
		return token
	}
	return ""
}

// UsernameFromContext extracts the display name injected by Guard.
func UsernameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(usernameKey).(string); ok {
		return name
	}
	return DefaultUsername
}
