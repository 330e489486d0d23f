package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.abhg.dev/goldmark/frontmatter"
)

// Renderer turns content pages into HTML. Pages may open with a YAML
// (---) or TOML (+++) front matter block.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
				&frontmatter.Extender{},
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render converts source to HTML and decodes its front matter into meta,
// which must be a pointer. A page without front matter leaves meta as is.
func (r *Renderer) Render(source []byte, meta any) ([]byte, error) {
	pc := parser.NewContext()

	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	if fm := frontmatter.Get(pc); fm != nil && meta != nil {
		if err := fm.Decode(meta); err != nil {
			return nil, fmt.Errorf("decode front matter: %w", err)
		}
	}
	return buf.Bytes(), nil
}
