package content

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// sourcePattern selects page sources inside the library's file system.
const sourcePattern = "**/*.md"

// Library holds every page source, keyed by id (the file stem). It is safe
// for concurrent use; Reload swaps the whole set at once.
type Library struct {
	mu    sync.RWMutex
	fsys  fs.FS
	pages map[string]Page
}

// Load reads every Markdown file under fsys.
func Load(fsys fs.FS) (*Library, error) {
	l := &Library{fsys: fsys}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the sources. On error the previous set stays in place.
func (l *Library) Reload() error {
	pages, err := readPages(l.fsys)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.pages = pages
	l.mu.Unlock()
	return nil
}

func readPages(fsys fs.FS) (map[string]Page, error) {
	matches, err := doublestar.Glob(fsys, sourcePattern)
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", sourcePattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no markdown pages found")
	}

	pages := make(map[string]Page, len(matches))
	for _, m := range matches {
		id := strings.TrimSuffix(path.Base(m), ".md")
		if prev, dup := pages[id]; dup {
			return nil, fmt.Errorf("page id %q defined twice (%s)", id, prev.ID)
		}
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", m, err)
		}
		p, err := Parse(id, data)
		if err != nil {
			return nil, err
		}
		pages[id] = p
	}
	return pages, nil
}

// Get returns the page with the given id.
func (l *Library) Get(id string) (Page, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.pages[id]
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrPageMissing, id)
	}
	return p, nil
}

// Title returns the page title, or the id when the page is unknown.
func (l *Library) Title(id string) string {
	if p, err := l.Get(id); err == nil {
		return p.Title
	}
	return id
}

// IDs returns every page id sorted by front matter order, then id.
func (l *Library) IDs() []string {
	l.mu.RLock()
	list := make([]Page, 0, len(l.pages))
	for _, p := range l.pages {
		list = append(list, p)
	}
	l.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].ID < list[j].ID
	})
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	return ids
}

// Len returns the number of pages.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pages)
}

// Validate reports every required page id that has no source.
func (l *Library) Validate(required []string) error {
	var errs []error
	for _, id := range required {
		if _, err := l.Get(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
