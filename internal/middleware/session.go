package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
)

// SessionCookieName carries the opaque session token.
const SessionCookieName = "sessionid"

type contextKey string

const userIDKey contextKey = "user_id"

type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (int64, bool, error)
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// LoadSession resolves the session cookie and stores the user id in the
// request context. Anonymous requests pass through untouched.
func LoadSession(sessions SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok, err := sessions.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				logger.Warn("session lookup failed", "err", err)
			}
			if ok {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous requests to the login page, remembering
// where they were headed.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func LoginURL(next string) string {
	if next == "" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}
