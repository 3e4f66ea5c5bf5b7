// Package router implements the per-session section router: it resolves a
// URL path against the route table and keeps exactly one page instance
// mounted at a time.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vmware/transport-docs/internal/content"
	"github.com/vmware/transport-docs/internal/highlight"
	"github.com/vmware/transport-docs/internal/logging"
	"github.com/vmware/transport-docs/internal/page"
	"github.com/vmware/transport-docs/internal/routes"
)

var (
	// ErrClosed is returned by Navigate and Visit after Close.
	ErrClosed = errors.New("router closed")
	// ErrStale is returned by CheckInstance for an instance that has since
	// been replaced.
	ErrStale = errors.New("page instance no longer mounted")
)

// fallbackNotFound is mounted when the library has no not-found source.
var fallbackNotFound = content.Page{
	ID:    routes.NotFoundPage,
	Title: "Page not found",
	Body:  []byte("# Page not found\n\nThe page you asked for does not exist.\n"),
}

// SectionRouter owns the outlet of one client session. Navigations and
// view checkpoints are serialized by mu, so an observer never sees two
// mounted instances or none between them.
type SectionRouter struct {
	table       *routes.Table
	lib         *content.Library
	renderer    *content.Renderer
	highlighter highlight.Highlighter
	scope       highlight.Scope
	basePath    string
	sessionID   string
	observers   []Observer
	logger      *slog.Logger

	mu      sync.Mutex
	surface *html.Node
	outlet  *html.Node
	active  *page.Instance
	closed  bool
}

// Option configures a SectionRouter.
type Option func(*SectionRouter)

// WithObserver adds an event observer. It may be given more than once.
func WithObserver(o Observer) Option {
	return func(r *SectionRouter) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithSessionID tags every event with the session id.
func WithSessionID(id string) Option {
	return func(r *SectionRouter) { r.sessionID = id }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *SectionRouter) { r.logger = logging.Component(l, "router") }
}

// WithScope selects the tree handed to the highlighter.
func WithScope(s highlight.Scope) Option {
	return func(r *SectionRouter) { r.scope = s }
}

// WithBasePath strips the prefix from paths given to Navigate.
func WithBasePath(p string) Option {
	return func(r *SectionRouter) { r.basePath = strings.TrimRight(p, "/") }
}

// WithRenderer shares a Markdown renderer between routers.
func WithRenderer(cr *content.Renderer) Option {
	return func(r *SectionRouter) { r.renderer = cr }
}

// New creates a router with nothing mounted.
func New(table *routes.Table, lib *content.Library, h highlight.Highlighter, opts ...Option) *SectionRouter {
	r := &SectionRouter{
		table:       table,
		lib:         lib,
		highlighter: h,
		scope:       highlight.ScopePage,
		logger:      logging.Component(nil, "router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.renderer == nil {
		r.renderer = content.NewRenderer()
	}

	r.outlet = &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: "router-outlet"}},
	}
	r.surface = &html.Node{
		Type:     html.ElementNode,
		Data:     "main",
		DataAtom: atom.Main,
		Attr:     []html.Attribute{{Key: "class", Val: "section-surface"}},
	}
	r.surface.AppendChild(r.outlet)
	return r
}

// SessionID returns the id events are tagged with.
func (r *SectionRouter) SessionID() string { return r.sessionID }

// Segment maps a URL path to the route-table segment it names.
func (r *SectionRouter) Segment(urlPath string) string {
	p := strings.TrimSpace(urlPath)
	if r.basePath != "" {
		if p == r.basePath {
			return ""
		}
		if rest, ok := strings.CutPrefix(p, r.basePath+"/"); ok {
			p = rest
		}
	}
	return routes.Normalize(p)
}

// Navigate mounts the page for urlPath, destroying the previous instance.
// Unknown paths mount the not-found page; the resolution error is reported
// through a not_found event, never to the caller.
func (r *SectionRouter) Navigate(ctx context.Context, urlPath string) (*page.Instance, error) {
	next, events, err := r.prepare(urlPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		next.Destroy()
		return nil, ErrClosed
	}
	events = r.swapLocked(next, events)
	r.mu.Unlock()

	r.emit(ctx, events)
	return next, nil
}

// Visit mounts the page for urlPath, fires its first view checkpoint and
// writes its markup to w without releasing the lock in between, so a
// concurrent navigation on the same router can never be rendered in its
// place. A highlighting failure is returned wrapped in page.ErrHighlight
// after the plain page has been written. When the checkpoint fails for any
// other reason (a cancelled ctx) nothing is written and the page stays
// mounted unhighlighted.
func (r *SectionRouter) Visit(ctx context.Context, urlPath string, w io.Writer) (*page.Instance, error) {
	next, events, err := r.prepare(urlPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		next.Destroy()
		return nil, ErrClosed
	}
	events = r.swapLocked(next, events)
	checked, ran, err := r.checkLocked(ctx, next)
	events = append(events, checked...)
	if err == nil || errors.Is(err, page.ErrHighlight) {
		if rerr := next.Render(w); rerr != nil {
			err = fmt.Errorf("rendering %s: %w", next.PageID(), rerr)
		}
	}
	r.mu.Unlock()

	r.reportHighlight(next, ran, err)
	r.emit(ctx, events)
	return next, err
}

// ViewChecked forwards a view-stabilization checkpoint to the active
// instance. It reports whether the highlighter ran. A highlighting failure
// is returned wrapped in page.ErrHighlight; the page stays mounted.
func (r *SectionRouter) ViewChecked(ctx context.Context) (bool, error) {
	r.mu.Lock()
	inst := r.active
	if inst == nil {
		r.mu.Unlock()
		return false, nil
	}
	events, ran, err := r.checkLocked(ctx, inst)
	r.mu.Unlock()

	r.reportHighlight(inst, ran, err)
	r.emit(ctx, events)
	return ran, err
}

// CheckInstance is ViewChecked for a client that knows which mount it has
// painted. It returns ErrStale when instanceID is no longer the active
// instance. When the highlighter ran and w is non-nil, the highlighted
// markup is written to w under the same lock.
func (r *SectionRouter) CheckInstance(ctx context.Context, instanceID string, w io.Writer) (bool, error) {
	r.mu.Lock()
	inst := r.active
	if inst == nil || inst.ID() != instanceID {
		r.mu.Unlock()
		return false, ErrStale
	}
	events, ran, err := r.checkLocked(ctx, inst)
	if ran && w != nil {
		if rerr := inst.Render(w); rerr != nil && err == nil {
			err = fmt.Errorf("rendering %s: %w", inst.PageID(), rerr)
		}
	}
	r.mu.Unlock()

	r.reportHighlight(inst, ran, err)
	r.emit(ctx, events)
	return ran, err
}

// prepare resolves urlPath and builds the instance to mount. It takes no
// lock; building the tree is the slow part of a navigation.
func (r *SectionRouter) prepare(urlPath string) (*page.Instance, []Event, error) {
	segment := r.Segment(urlPath)
	var events []Event

	pageID, err := r.table.Resolve(segment)
	if err != nil {
		events = append(events, r.event(EventNotFound, nil, segment, err.Error()))
		pageID = routes.NotFoundPage
	}

	src, err := r.lib.Get(pageID)
	if err != nil {
		if pageID != routes.NotFoundPage {
			events = append(events, r.event(EventNotFound, nil, segment, err.Error()))
		}
		r.logger.Warn("page source missing, mounting not-found", "page", pageID, "error", err)
		src, err = r.lib.Get(routes.NotFoundPage)
		if err != nil {
			src = fallbackNotFound
		}
	}

	next, err := page.Mount(src, segment, r.renderer)
	if err != nil {
		return nil, nil, fmt.Errorf("navigating to %q: %w", urlPath, err)
	}
	return next, events, nil
}

// swapLocked replaces the active instance with next. r.mu must be held.
func (r *SectionRouter) swapLocked(next *page.Instance, events []Event) []Event {
	if prev := r.active; prev != nil {
		prev.Destroy()
		events = append(events, r.event(EventUnmounted, prev, prev.Path(), ""))
	}
	r.outlet.AppendChild(next.Tree())
	r.active = next
	return append(events, r.event(EventMounted, next, next.Path(), ""))
}

// checkLocked runs the checkpoint on inst. r.mu must be held.
func (r *SectionRouter) checkLocked(ctx context.Context, inst *page.Instance) ([]Event, bool, error) {
	var target *html.Node
	if r.scope == highlight.ScopeGlobal {
		target = r.surface
	}
	ran, err := inst.AfterViewChecked(ctx, r.highlighter, target)
	if !ran {
		return nil, false, err
	}
	if err != nil {
		return []Event{r.event(EventHighlightFailed, inst, inst.Path(), err.Error())}, true, err
	}
	return []Event{r.event(EventHighlighted, inst, inst.Path(), "")}, true, nil
}

func (r *SectionRouter) reportHighlight(inst *page.Instance, ran bool, err error) {
	if ran && errors.Is(err, page.ErrHighlight) {
		r.logger.Warn("highlighting failed, serving plain page", "page", inst.PageID(), "error", err)
	}
}

// Active returns the mounted instance, or nil.
func (r *SectionRouter) Active() *page.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// RenderActive writes the active instance's markup and returns the instance
// that was rendered.
func (r *SectionRouter) RenderActive(w io.Writer) (*page.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil, errors.New("nothing mounted")
	}
	return r.active, r.active.Render(w)
}

// Close unmounts the active instance. Later navigations fail with ErrClosed.
func (r *SectionRouter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	var events []Event
	if prev := r.active; prev != nil {
		prev.Destroy()
		events = append(events, r.event(EventUnmounted, prev, prev.Path(), "session closed"))
		r.active = nil
	}
	r.mu.Unlock()

	r.emit(context.Background(), events)
}

func (r *SectionRouter) event(t EventType, inst *page.Instance, path, detail string) Event {
	ev := Event{
		Type:      t,
		SessionID: r.sessionID,
		Path:      path,
		Detail:    detail,
		Time:      time.Now().UTC(),
	}
	if inst != nil {
		ev.InstanceID = inst.ID()
		ev.PageID = inst.PageID()
	}
	return ev
}

func (r *SectionRouter) emit(ctx context.Context, events []Event) {
	for _, ev := range events {
		r.logger.Debug("lifecycle", "event", string(ev.Type), "page", ev.PageID, "path", ev.Path, "session", ev.SessionID)
		for _, o := range r.observers {
			o.Observe(ctx, ev)
		}
	}
}
