package routes

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/ecoscan/internal/app"
	"github.com/templui/ecoscan/internal/config"
)

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

type client struct {
	t    *testing.T
	base string
	http *http.Client
	csrf string
}

func newServer(t *testing.T) (*client, *app.App) {
	t.Helper()
	t.Setenv("COOKIE_SECURE", "false")

	dir := t.TempDir()
	a, err := app.New(&config.Config{
		AppName:                "Ecoscan",
		AppEnv:                 "development",
		AppURL:                 "http://localhost",
		ContentPath:            dir,
		DBDriver:               "sqlite",
		DBConnection:           filepath.Join(dir, "ecoscan.db"),
		JWTSecret:              "test-secret",
		JWTExpiry:              time.Hour,
		TokenEmailVerifyExpiry: time.Hour,
		ActivityStorageKey:     "ecoscan-activities",
		RedirectDelay:          1500 * time.Millisecond,
		ArchivePath:            filepath.Join(dir, "archive"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &client{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, a
}

func (c *client) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	if m := csrfMeta.FindSubmatch(body); m != nil {
		c.csrf = string(m[1])
	}
	return resp, string(body)
}

func (c *client) get(path string) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *client) post(path string, form url.Values, htmx bool) (*http.Response, string) {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", c.csrf)

	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return c.do(req)
}

func TestPublicRoutes(t *testing.T) {
	c, _ := newServer(t)

	resp, body := c.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Track Your Carbon Footprint")
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "'nonce-")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = c.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = c.get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ecoscan_session_open_streams")

	resp, body = c.get("/assets/js/app.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ecoscan:redirect")

	resp, _ = c.get("/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProtectedRoutesRedirectGuests(t *testing.T) {
	c, _ := newServer(t)

	for _, path := range []string{"/log-activity", "/dashboard", "/dashboard/export", "/log-activity/preview"} {
		resp, _ := c.get(path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/auth", resp.Header.Get("Location"), path)
	}

	_, body := c.get("/session/events")
	assert.Equal(t, "event: redirect\ndata: /auth\n\n", body)
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	c, _ := newServer(t)
	c.get("/auth")

	c.csrf = "forged"
	resp, _ := c.post("/auth/sign-in", url.Values{"email": {"a@example.com"}, "password": {"x"}}, false)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSignUpLogAndSignOut(t *testing.T) {
	c, a := newServer(t)

	resp, _ := c.get("/auth?mode=signup")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, c.csrf)

	resp, body := c.post("/auth/sign-up", url.Values{
		"email":    {"ada@example.com"},
		"password": {"correct horse battery"},
	}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Account created!")

	var token string
	require.NoError(t, a.DB.Get(&token, `SELECT token FROM tokens WHERE type = 'email_verify'`))

	resp, _ = c.get("/auth/verify-email/" + token)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = c.get("/auth")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "signed-in users skip the auth page")
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body = c.get("/log-activity")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Log Your Activity")
	assert.Contains(t, body, `data-session-events="/session/events"`)

	resp, body = c.post("/log-activity", url.Values{
		"category":    {"transport"},
		"description": {"drove 10 km to work"},
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Activity Logged!")
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "/dashboard")

	resp, body = c.get("/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "drove 10 km to work")
	assert.Contains(t, body, "1.00")

	resp, _ = c.post("/auth/logout", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = c.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth", resp.Header.Get("Location"))
}
