// Package routes holds the static table that maps URL path segments to the
// content page responsible for them.
package routes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Resolve for a segment with no entry.
	ErrNotFound = errors.New("route not found")
	// ErrDuplicatePath is returned by New when two entries share a path.
	ErrDuplicatePath = errors.New("duplicate route path")
)

// Entry maps one path segment to a page id.
type Entry struct {
	Path string `json:"path"`
	Page string `json:"page"`
}

// Table is an ordered, immutable list of entries. Matching is exact-string
// on the normalized segment; there are no patterns or wildcards.
type Table struct {
	entries []Entry
	index   map[string]string
}

// New builds a Table. Paths are normalized before the uniqueness check.
func New(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if e.Page == "" {
			return nil, fmt.Errorf("route %q has no page", e.Path)
		}
		p := Normalize(e.Path)
		if _, dup := t.index[p]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, p)
		}
		t.index[p] = e.Page
		t.entries = append(t.entries, Entry{Path: p, Page: e.Page})
	}
	return t, nil
}

// MustNew is New for tables declared at package init. It panics on error.
func MustNew(entries ...Entry) *Table {
	t, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Normalize strips surrounding whitespace and slashes from a segment.
func Normalize(segment string) string {
	return strings.Trim(strings.TrimSpace(segment), "/")
}

// Resolve returns the page id for the segment.
func (t *Table) Resolve(segment string) (string, error) {
	p := Normalize(segment)
	if page, ok := t.index[p]; ok {
		return page, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, p)
}

// Entries returns a copy of the entries in declaration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Paths returns the normalized paths in declaration order.
func (t *Table) Paths() []string {
	paths := make([]string, len(t.entries))
	for i, e := range t.entries {
		paths[i] = e.Path
	}
	return paths
}

// Pages returns the distinct page ids in declaration order.
func (t *Table) Pages() []string {
	seen := make(map[string]bool, len(t.entries))
	var pages []string
	for _, e := range t.entries {
		if !seen[e.Page] {
			seen[e.Page] = true
			pages = append(pages, e.Page)
		}
	}
	return pages
}

// PathFor returns the canonical segment for a page: the first non-empty
// path that maps to it, or "" when the page is only reachable at the root.
func (t *Table) PathFor(page string) (string, bool) {
	found := false
	for _, e := range t.entries {
		if e.Page != page {
			continue
		}
		found = true
		if e.Path != "" {
			return e.Path, true
		}
	}
	return "", found
}
