package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/ecoscan/internal/ctxkeys"
	"github.com/templui/ecoscan/internal/service"
	"github.com/templui/ecoscan/internal/session"
)

// AuthMiddleware resolves the auth cookie to the current session and adds
// the session and user to context if it is active
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.AuthCookieName)
			if err != nil {
				// No cookie, continue without auth
				next.ServeHTTP(w, r)
				return
			}

			sess, user, err := authService.Current(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, service.ErrNoSession) {
					slog.Error("failed to resolve session", "error", err)
				}
				// Stale or invalid token, clear cookie and continue
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithSession(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth mounts a session gate for the request: without a session the
// visitor is sent to /auth and the handler never runs
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gate := session.NewGate(func() {
			redirect(w, r, "/auth")
		})
		if !gate.Mount(ctxkeys.Session(r.Context()), nil) {
			return
		}
		defer gate.Unmount()

		next.ServeHTTP(w, r)
	}
}

// RequireGuest sends signed-in users to the home page
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) != nil {
			redirect(w, r, "/")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// redirect uses HX-Redirect for htmx requests to force a full page load
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
