// Package identity manages the cross-domain pseudo-identity: a uuid minted
// once per device and persisted in a long-lived cookie. It is a correlation
// key for personal records and profiles, not an authentication identity.
package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smarlify/playful-hub/internal/config"
)

type contextKey struct{}

// Provider resolves the cross-domain user id for a request context.
// Implementations must return the same id for the lifetime of the backing
// storage and never regenerate it while that storage exists.
type Provider interface {
	UserID(ctx context.Context) (string, bool)
}

// FromContext returns the user id stashed by Middleware
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// WithUserID returns a context carrying the given user id. Used by the
// middleware and by tests that fake an identity.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// ContextProvider reads the id from the request context
type ContextProvider struct{}

// UserID implements Provider
func (ContextProvider) UserID(ctx context.Context) (string, bool) {
	return FromContext(ctx)
}

// Middleware resolves or creates the identity cookie and stashes the id in
// the request context. The cookie is created exactly once per device: an
// existing value is always reused, never rewritten.
func Middleware(cfg *config.IdentityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if cookie, err := r.Cookie(cfg.CookieName); err == nil && cookie.Value != "" {
				userID = cookie.Value
			} else {
				userID = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    userID,
					Path:     "/",
					Expires:  time.Now().Add(cfg.CookieTTL),
					MaxAge:   int(cfg.CookieTTL / time.Second),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
