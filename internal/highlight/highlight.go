// Package highlight post-processes a rendered HTML tree, replacing fenced
// code blocks with syntax-highlighted markup.
package highlight

import (
	"strings"
	"sync/atomic"

	"golang.org/x/net/html"
)

// Highlighter rewrites the code blocks found under root in place. It is
// expensive and is not safe to run twice over the same markup; callers gate
// it to once per mount.
type Highlighter interface {
	HighlightAll(root *html.Node) error
}

// Func adapts a function to the Highlighter interface.
type Func func(root *html.Node) error

// HighlightAll calls f(root).
func (f Func) HighlightAll(root *html.Node) error { return f(root) }

// Scope selects the tree handed to the highlighter.
type Scope string

const (
	// ScopePage highlights only the mounted page's own tree.
	ScopePage Scope = "page"
	// ScopeGlobal highlights the whole surface the router renders into.
	ScopeGlobal Scope = "global"
)

// Counter counts invocations and forwards to Next when set.
type Counter struct {
	Next Highlighter
	n    atomic.Int64
}

// HighlightAll records the call and delegates.
func (c *Counter) HighlightAll(root *html.Node) error {
	c.n.Add(1)
	if c.Next == nil {
		return nil
	}
	return c.Next.HighlightAll(root)
}

// Count returns the number of calls so far.
func (c *Counter) Count() int64 { return c.n.Load() }

// CodeBlock is a <pre><code class="language-x"> element pair found in a tree.
type CodeBlock struct {
	Pre      *html.Node
	Code     *html.Node
	Language string
}

// FindCodeBlocks returns the fenced code blocks under root in document
// order. A <pre> without a language class is not a code block.
func FindCodeBlocks(root *html.Node) []CodeBlock {
	var blocks []CodeBlock
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "pre" {
			if code := firstElementChild(n); code != nil && code.Data == "code" {
				if lang := languageOf(code); lang != "" {
					blocks = append(blocks, CodeBlock{Pre: n, Code: code, Language: lang})
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return blocks
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func languageOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			if lang, ok := strings.CutPrefix(cls, "language-"); ok && lang != "" {
				return lang
			}
		}
	}
	return ""
}

// TextContent concatenates every text node under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
