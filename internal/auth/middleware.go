package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/fixpoint-app/fixpoint/internal/authz"
	"github.com/fixpoint-app/fixpoint/internal/platform/httpx"
	"github.com/fixpoint-app/fixpoint/internal/shared"
)

// IdentityLoader resolves the caller into an authz.Identity and attaches it
// to the request context. Two load paths exist: a bearer token carries the
// primary role claim only, while a cookie session triggers a fresh
// directory read that also loads auxiliary roles.
type IdentityLoader struct {
	Service *Service
	Logger  *slog.Logger
}

// Middleware attaches the identity when the request is authenticated.
// Requests without credentials pass through without an identity; the
// authorization gates fail closed on their own.
func (l IdentityLoader) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			id, err := l.Service.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				if l.Logger != nil {
					l.Logger.Warn("bearer token rejected", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid access token")
				return
			}
			next.ServeHTTP(w, r.WithContext(authz.ContextWithIdentity(ctx, id)))
			return
		}

		if sess := shared.SessionFromContext(ctx); sess != nil && sess.User() != "" {
			userID, err := strconv.ParseInt(sess.User(), 10, 64)
			if err == nil {
				user, err := l.Service.LoadUser(ctx, userID)
				if err == nil && user.IsActive {
					next.ServeHTTP(w, r.WithContext(authz.ContextWithIdentity(ctx, user.Identity())))
					return
				}
				if err != nil && l.Logger != nil {
					l.Logger.Warn("session user load", slog.Int64("user_id", userID), slog.Any("error", err))
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests that carry no identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authz.IdentityFromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
