package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/ecoscan/internal/config"
	"github.com/templui/ecoscan/internal/ctxkeys"
	"github.com/templui/ecoscan/internal/db"
	"github.com/templui/ecoscan/internal/model"
	"github.com/templui/ecoscan/internal/repository"
	"github.com/templui/ecoscan/internal/service"
	"github.com/templui/ecoscan/internal/session"
)

type nopMailer struct{}

func (nopMailer) SendVerificationEmail(context.Context, string, string) error { return nil }
func (nopMailer) SendWelcomeEmail(context.Context, string) error             { return nil }

func newAuthService(t *testing.T) (*service.AuthService, repository.UserRepository) {
	t.Helper()

	conn, err := db.Open("sqlite", filepath.Join(t.TempDir(), "ecoscan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(conn) })

	users := repository.NewUserRepository(conn)
	svc := service.NewAuthService(
		users,
		repository.NewTokenRepository(conn),
		repository.NewSessionRepository(conn),
		nopMailer{},
		session.NewBroker(),
		"test-secret",
		false,
		time.Hour,
		time.Hour,
	)
	return svc, users
}

func signedInCookie(t *testing.T, svc *service.AuthService, users repository.UserRepository) (*http.Cookie, *model.User) {
	t.Helper()

	now := time.Now()
	user := &model.User{ID: uuid.NewString(), Email: "ada@example.com", EmailVerifiedAt: &now, CreatedAt: now}
	require.NoError(t, users.Create(context.Background(), user))

	token, _, err := svc.StartSession(context.Background(), user)
	require.NoError(t, err)
	return &http.Cookie{Name: service.AuthCookieName, Value: token}, user
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestAuthMiddleware(t *testing.T) {
	svc, users := newAuthService(t)
	cookie, user := signedInCookie(t, svc, users)

	var gotUser *model.User
	var gotSession *model.Session
	h := AuthMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = ctxkeys.User(r.Context())
		gotSession = ctxkeys.Session(r.Context())
	}))

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		h.ServeHTTP(httptest.NewRecorder(), req)

		require.NotNil(t, gotUser)
		assert.Equal(t, user.ID, gotUser.ID)
		assert.Nil(t, gotUser.PasswordHash)
		require.NotNil(t, gotSession)
		assert.True(t, gotSession.IsActive())
	})

	t.Run("garbage cookie is cleared", func(t *testing.T) {
		gotUser, gotSession = nil, nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: service.AuthCookieName, Value: "not-a-jwt"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Nil(t, gotUser)
		assert.Nil(t, gotSession)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), service.AuthCookieName+"=;")
	})

	t.Run("revoked session", func(t *testing.T) {
		gotUser, gotSession = nil, nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		_, sess, err := currentSession(svc, cookie)
		require.NoError(t, err)
		require.NoError(t, svc.SignOut(context.Background(), sess.ID))

		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Nil(t, gotUser)
	})
}

func currentSession(svc *service.AuthService, cookie *http.Cookie) (*model.User, *model.Session, error) {
	sess, user, err := svc.Current(context.Background(), cookie.Value)
	return user, sess, err
}

func TestRequireAuth(t *testing.T) {
	called := false
	h := RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	t.Run("no session redirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.False(t, called)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth", rec.Header().Get("Location"))
	})

	t.Run("htmx request gets HX-Redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/log-activity", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.False(t, called)
		assert.Equal(t, "/auth", rec.Header().Get("HX-Redirect"))
	})

	t.Run("expired session redirects", func(t *testing.T) {
		expired := &model.Session{ID: "s1", ExpiresAt: time.Now().Add(-time.Minute)}
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(ctxkeys.WithSession(req.Context(), expired))
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("active session renders", func(t *testing.T) {
		active := &model.Session{ID: "s1", ExpiresAt: time.Now().Add(time.Hour)}
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(ctxkeys.WithSession(req.Context(), active))
		h(httptest.NewRecorder(), req)

		assert.True(t, called)
	})
}

func TestRequireGuest(t *testing.T) {
	h := RequireGuest(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/auth", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	req = req.WithContext(ctxkeys.WithUser(req.Context(), &model.User{ID: "u1"}))
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestCSRFProtection(t *testing.T) {
	var token string
	h := CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = ctxkeys.CSRFToken(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	csrfCookie := cookies[0]

	t.Run("missing token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/log-activity", nil)
		req.AddCookie(csrfCookie)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("header token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/log-activity", nil)
		req.AddCookie(csrfCookie)
		req.Header.Set("X-CSRF-Token", csrfCookie.Value)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("form token", func(t *testing.T) {
		form := url.Values{"csrf_token": {csrfCookie.Value}}
		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(csrfCookie)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCSRFProtection_HTMXRefreshesStalePage(t *testing.T) {
	h := CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/log-activity", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("X-CSRF-Token", "stale")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("HX-Refresh"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, 0)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "limits are per IP")

	now = now.Add(time.Minute + time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok, "window slides")
}

func TestRateLimiterLimitSetsRetryAfter(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, 0)
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	h(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.7")
	assert.Equal(t, "203.0.113.5", getClientIP(req))
}

func TestSecurityHeadersUseNonce(t *testing.T) {
	var nonce string
	h := NonceMiddleware(SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = templ.GetNonce(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, nonce)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "'nonce-"+nonce+"'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestConfigAndURLPath(t *testing.T) {
	cfg := &config.Config{AppName: "Ecoscan", JWTSecret: "secret"}

	var got *config.Config
	var path string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ctxkeys.Config(r.Context())
		path = ctxkeys.URLPath(r.Context())
	}), Config(cfg), WithURLPath)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NotNil(t, got)
	assert.Equal(t, "Ecoscan", got.AppName)
	assert.Empty(t, got.JWTSecret)
	assert.Equal(t, "/dashboard", path)
}

func TestRequestLoggingFlushesAndSetsRequestID(t *testing.T) {
	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("data: hi\n\n"))
		flusher.Flush()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session/events", nil))

	assert.True(t, rec.Flushed)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, levelForStatus(http.StatusSeeOther))
	assert.Equal(t, slog.LevelWarn, levelForStatus(http.StatusUnprocessableEntity))
	assert.Equal(t, slog.LevelError, levelForStatus(http.StatusServiceUnavailable))
}
