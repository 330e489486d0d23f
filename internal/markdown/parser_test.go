package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Title    string   `yaml:"title"`
	Sections []string `yaml:"sections"`
}

func TestRender_DecodesFrontmatter(t *testing.T) {
	source := []byte("---\ntitle: Track your footprint\nsections:\n  - Log\n  - Review\n---\n\n# Hello\n\nSome *text*.\n")

	var meta page
	html, err := NewRenderer().Render(source, &meta)
	require.NoError(t, err)

	assert.Equal(t, "Track your footprint", meta.Title)
	assert.Equal(t, []string{"Log", "Review"}, meta.Sections)
	assert.Contains(t, string(html), `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, string(html), "<em>text</em>")
	assert.NotContains(t, string(html), "title:")
}

func TestRender_NoFrontmatterKeepsMeta(t *testing.T) {
	meta := page{Title: "unchanged"}
	html, err := NewRenderer().Render([]byte("plain"), &meta)
	require.NoError(t, err)

	assert.Equal(t, "unchanged", meta.Title)
	assert.Contains(t, string(html), "<p>plain</p>")
}

func TestRender_BadFrontmatter(t *testing.T) {
	var meta page
	_, err := NewRenderer().Render([]byte("---\ntitle: [unclosed\n---\nbody\n"), &meta)
	assert.ErrorContains(t, err, "decode front matter")
}
