package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLandingService_ParsesFrontmatter(t *testing.T) {
	dir := t.TempDir()
	content := "---\ntitle: Hello\ncta: Go\nfeatures:\n  - title: One\n    description: First\n---\n\nBody **text**.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.md"), []byte(content), 0644))

	landing, err := NewLandingService(dir).Landing()
	require.NoError(t, err)

	assert.Equal(t, "Hello", landing.Title)
	assert.Equal(t, "Go", landing.CTA)
	assert.Equal(t, defaultLanding.Tagline, landing.Tagline)
	require.Len(t, landing.Features, 1)
	assert.Equal(t, "First", landing.Features[0].Description)
	assert.Contains(t, landing.HTML, "<strong>text</strong>")
}

func TestLandingService_MissingFileUsesDefaults(t *testing.T) {
	landing, err := NewLandingService(t.TempDir()).Landing()
	require.NoError(t, err)

	assert.Equal(t, defaultLanding.Title, landing.Title)
	assert.Len(t, landing.Features, 3)
}

func TestLandingService_BadFrontmatterIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.md"), []byte("---\nfeatures: {\n---\n"), 0644))

	_, err := NewLandingService(dir).Landing()
	assert.Error(t, err)
}
