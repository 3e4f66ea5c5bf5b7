package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Chroma highlights code blocks with chroma, emitting class-based markup
// styled by the stylesheet from WriteCSS.
type Chroma struct {
	styleName string
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewChroma creates a highlighter for the named chroma style.
func NewChroma(styleName string) (*Chroma, error) {
	if !slices.Contains(styles.Names(), styleName) {
		return nil, fmt.Errorf("unknown highlight style %q", styleName)
	}
	return &Chroma{
		styleName: styleName,
		style:     styles.Get(styleName),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}, nil
}

// Style returns the configured style name.
func (c *Chroma) Style() string { return c.styleName }

// HighlightAll replaces every fenced code block under root. Blocks that fail
// to tokenize are left as they were; their errors are joined and returned
// after the remaining blocks are processed.
func (c *Chroma) HighlightAll(root *html.Node) error {
	var errs []error
	for i, block := range FindCodeBlocks(root) {
		if err := c.highlightBlock(block); err != nil {
			errs = append(errs, fmt.Errorf("block %d (%s): %w", i, block.Language, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Chroma) highlightBlock(block CodeBlock) error {
	parent := block.Pre.Parent
	if parent == nil {
		return fmt.Errorf("code block is not attached to a tree")
	}

	lexer := lexers.Get(block.Language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, TextContent(block.Code))
	if err != nil {
		return fmt.Errorf("tokenising: %w", err)
	}

	var buf bytes.Buffer
	if err := c.formatter.Format(&buf, c.style, iterator); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}

	fragmentCtx := parent
	if fragmentCtx.Type != html.ElementNode {
		fragmentCtx = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	nodes, err := html.ParseFragment(&buf, fragmentCtx)
	if err != nil {
		return fmt.Errorf("parsing highlighted markup: %w", err)
	}

	for _, n := range nodes {
		parent.InsertBefore(n, block.Pre)
	}
	parent.RemoveChild(block.Pre)
	return nil
}

// CSS writes the stylesheet for the configured style.
func (c *Chroma) CSS(w io.Writer) error {
	return c.formatter.WriteCSS(w, c.style)
}
