package nav

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/ecoscan/internal/ctxkeys"
	"github.com/templui/ecoscan/internal/model"
)

func TestLinkClass(t *testing.T) {
	active := LinkClass("/dashboard", "/dashboard")
	assert.Contains(t, active, "bg-green-600")
	assert.NotContains(t, active, "hover:bg-green-50")

	inactive := LinkClass("/dashboard", "/")
	assert.NotContains(t, inactive, "bg-green-600")
}

func TestNavHighlightsCurrentPath(t *testing.T) {
	ctx := ctxkeys.WithURLPath(context.Background(), "/log-activity")

	var buf bytes.Buffer
	require.NoError(t, Nav().Render(ctx, &buf))

	html := buf.String()
	assert.Contains(t, html, `href="/log-activity" class="`+LinkClass("/log-activity", "/log-activity")+`" aria-current="page"`)
	assert.Contains(t, html, `href="/auth"`)
	assert.NotContains(t, html, "Sign Out")
}

func TestNavSignedIn(t *testing.T) {
	ctx := ctxkeys.WithUser(context.Background(), &model.User{ID: "u1", Email: "ada@example.com"})
	ctx = ctxkeys.WithCSRFToken(ctx, "tok")

	var buf bytes.Buffer
	require.NoError(t, Nav().Render(ctx, &buf))

	html := buf.String()
	assert.Contains(t, html, `action="/auth/logout"`)
	assert.Contains(t, html, `value="tok"`)
	assert.Contains(t, html, "ada@example.com")
}
