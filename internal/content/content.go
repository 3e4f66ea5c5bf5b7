// Package content loads the Markdown sources behind each documentation page.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

//go:embed pages/*.md pages/java/*.md
var embedded embed.FS

// ErrPageMissing is returned when a page id has no source.
var ErrPageMissing = errors.New("page source missing")

// Embedded returns the pages bundled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "pages")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page is one parsed Markdown source.
type Page struct {
	ID      string
	Title   string
	Summary string
	Order   int
	Body    []byte
}

type frontMatter struct {
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
	Order   int    `yaml:"order"`
}

var fmDelim = []byte("---")

// Parse splits optional YAML front matter from the Markdown body. Without a
// title in front matter the first "# " heading is used, then the id.
func Parse(id string, data []byte) (Page, error) {
	p := Page{ID: id}
	body := data

	if bytes.HasPrefix(data, fmDelim) {
		rest := data[len(fmDelim):]
		rest = bytes.TrimLeft(rest, "\r")
		if !bytes.HasPrefix(rest, []byte("\n")) {
			return Page{}, fmt.Errorf("page %s: malformed front matter opening", id)
		}
		rest = rest[1:]

		var block, after []byte
		if bytes.HasPrefix(rest, fmDelim) {
			after = rest[len(fmDelim):]
		} else {
			end := bytes.Index(rest, []byte("\n---"))
			if end == -1 {
				return Page{}, fmt.Errorf("page %s: unterminated front matter", id)
			}
			block = rest[:end]
			after = rest[end+len("\n---"):]
		}

		var fm frontMatter
		if err := yaml.Unmarshal(block, &fm); err != nil {
			return Page{}, fmt.Errorf("page %s: parsing front matter: %w", id, err)
		}
		p.Title = fm.Title
		p.Summary = fm.Summary
		p.Order = fm.Order

		// Drop the rest of the closing delimiter line.
		body = nil
		if i := bytes.IndexByte(after, '\n'); i >= 0 {
			body = after[i+1:]
		}
	}

	p.Body = body
	if p.Title == "" {
		p.Title = extractTitle(body, id)
	}
	return p, nil
}

// extractTitle pulls the first # heading from markdown content, or falls back to the id.
func extractTitle(content []byte, id string) string {
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if bytes.HasPrefix(line, []byte("# ")) {
			return string(bytes.TrimPrefix(line, []byte("# ")))
		}
	}
	return id
}
