package content

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts page Markdown to HTML. Fenced code blocks come out as
// plain <pre><code class="language-x"> so the highlighter can process them
// after mount.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a Renderer with GFM and automatic heading ids.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// Render converts a page body to an HTML fragment.
func (r *Renderer) Render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(p.Body, &buf); err != nil {
		return nil, fmt.Errorf("converting markdown for %s: %w", p.ID, err)
	}
	return buf.Bytes(), nil
}
