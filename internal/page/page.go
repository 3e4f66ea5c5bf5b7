// Package page holds a mounted content page: its render tree and the
// lifecycle state that gates the one-time highlighting pass.
package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vmware/transport-docs/internal/content"
	"github.com/vmware/transport-docs/internal/highlight"
)

var (
	// ErrDestroyed is returned by operations on an unmounted instance.
	ErrDestroyed = errors.New("page instance destroyed")
	// ErrHighlight wraps any failure raised by the highlighter.
	ErrHighlight = errors.New("highlighting failed")
)

// State is the lifecycle position of an Instance. It only moves forward.
type State int

const (
	// Created is the state right after Mount; no checkpoint has run.
	Created State = iota
	// ViewRendered is held while the first checkpoint runs the highlighter.
	ViewRendered
	// Highlighted means the one highlighting pass is done, successful or not.
	Highlighted
	// Destroyed means the instance was unmounted.
	Destroyed
)

// String returns the snake_case name used in logs and events.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case ViewRendered:
		return "view_rendered"
	case Highlighted:
		return "highlighted"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Instance is one mount of a content page. A fresh Instance is created for
// every navigation, so the highlighted flag never carries over between
// mounts of the same page.
type Instance struct {
	mu sync.Mutex

	id        string
	pageID    string
	path      string
	title     string
	mountedAt time.Time

	state        State
	highlighted  bool
	highlightErr error
	tree         *html.Node
}

// Mount renders src and builds its tree under
// <article class="content-page" data-page="id">.
func Mount(src content.Page, path string, r *content.Renderer) (*Instance, error) {
	if r == nil {
		r = content.NewRenderer()
	}
	body, err := r.Render(src)
	if err != nil {
		return nil, fmt.Errorf("mounting %s: %w", src.ID, err)
	}

	article := &html.Node{
		Type:     html.ElementNode,
		Data:     "article",
		DataAtom: atom.Article,
		Attr: []html.Attribute{
			{Key: "class", Val: "content-page"},
			{Key: "data-page", Val: src.ID},
		},
	}
	nodes, err := html.ParseFragment(bytes.NewReader(body), article)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.ID, err)
	}
	for _, n := range nodes {
		article.AppendChild(n)
	}

	return &Instance{
		id:        uuid.NewString(),
		pageID:    src.ID,
		path:      path,
		title:     src.Title,
		mountedAt: time.Now(),
		state:     Created,
		tree:      article,
	}, nil
}

// AfterViewChecked is the view-stabilization checkpoint. The first call runs
// h over the target tree: surface when non-nil, otherwise the instance's own
// tree. The instance is marked highlighted whatever the outcome, so later
// calls are no-ops and report false. A cancelled ctx leaves the instance
// untouched.
func (i *Instance) AfterViewChecked(ctx context.Context, h highlight.Highlighter, surface *html.Node) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == Destroyed {
		return false, ErrDestroyed
	}
	if i.highlighted {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	i.state = ViewRendered
	target := surface
	if target == nil {
		target = i.tree
	}

	err := runHighlighter(h, target)
	i.highlighted = true
	i.state = Highlighted
	if err != nil {
		i.highlightErr = fmt.Errorf("%w: %s: %w", ErrHighlight, i.pageID, err)
		return true, i.highlightErr
	}
	return true, nil
}

func runHighlighter(h highlight.Highlighter, target *html.Node) (err error) {
	if h == nil {
		return errors.New("no highlighter configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("highlighter panicked: %v", r)
		}
	}()
	return h.HighlightAll(target)
}

// Destroy unmounts the instance. It is idempotent.
func (i *Instance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == Destroyed {
		return
	}
	if i.tree != nil && i.tree.Parent != nil {
		i.tree.Parent.RemoveChild(i.tree)
	}
	i.state = Destroyed
}

// Render writes the instance's article markup.
func (i *Instance) Render(w io.Writer) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == Destroyed {
		return ErrDestroyed
	}
	return html.Render(w, i.tree)
}

// HTML is Render into a string.
func (i *Instance) HTML() (string, error) {
	var buf bytes.Buffer
	if err := i.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Tree returns the root article node. Callers attach it to a surface; they
// must not mutate it concurrently with AfterViewChecked.
func (i *Instance) Tree() *html.Node { return i.tree }

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Highlighted reports whether the highlighting pass has run on this mount.
func (i *Instance) Highlighted() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.highlighted
}

// HighlightErr returns the error from the highlighting pass, if any.
func (i *Instance) HighlightErr() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.highlightErr
}

// ID identifies this mount. Two mounts of the same page never share it.
func (i *Instance) ID() string { return i.id }

// PageID returns the content page the instance was built from.
func (i *Instance) PageID() string { return i.pageID }

// Path returns the route segment that was navigated to.
func (i *Instance) Path() string { return i.path }

// Title returns the page title.
func (i *Instance) Title() string { return i.title }

// MountedAt returns when the instance was built.
func (i *Instance) MountedAt() time.Time { return i.mountedAt }
