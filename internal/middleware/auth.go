package middleware

import (
	"context"
	"net/http"
	"strings"

	"geocapture/internal/model"
)

// CookieName holds the access token issued at sign-in.
const CookieName = "access-token"

// TokenValidator resolves an access token to a live session.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*model.Session, error)
}

type contextKey struct{}

// SessionFromContext returns the session attached by AuthMiddleware.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	session, ok := ctx.Value(contextKey{}).(*model.Session)
	return session, ok
}

// WithSession attaches session to ctx.
func WithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

// AuthMiddleware lets a request through only if its access-token cookie
// belongs to a live session.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Login/signup pages, auth endpoints, static assets and public captures are open.
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CookieName)
			if err == nil && cookie.Value != "" {
				if session, err := validator.Validate(r.Context(), cookie.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
					return
				}
			}

			if wantsJSON(r) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}

func isPublicPath(path string) bool {
	switch path {
	case "/login", "/signup", "/login.html", "/signup.html":
		return true
	}
	return strings.HasPrefix(path, "/auth/") ||
		strings.HasPrefix(path, "/static/") ||
		strings.HasPrefix(path, "/public/")
}

// wantsJSON reports whether the caller is a script rather than a browser page load.
func wantsJSON(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/")
}
