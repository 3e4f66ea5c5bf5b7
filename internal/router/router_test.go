package router

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"golang.org/x/net/html"

	"github.com/vmware/transport-docs/internal/content"
	"github.com/vmware/transport-docs/internal/highlight"
	"github.com/vmware/transport-docs/internal/page"
	"github.com/vmware/transport-docs/internal/routes"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func newTestRouter(t *testing.T, h highlight.Highlighter, opts ...Option) *SectionRouter {
	t.Helper()
	lib, err := content.Load(content.Embedded())
	if err != nil {
		t.Fatalf("loading content: %v", err)
	}
	opts = append([]Option{WithBasePath("/typescript"), WithSessionID("s1")}, opts...)
	return New(routes.Default(), lib, h, opts...)
}

func TestNavigateMountsDeclaredPages(t *testing.T) {
	r := newTestRouter(t, &highlight.Counter{})
	for _, e := range routes.Default().Entries() {
		inst, err := r.Navigate(context.Background(), "/typescript/"+e.Path)
		if err != nil {
			t.Fatalf("Navigate(%q): %v", e.Path, err)
		}
		if inst.PageID() != e.Page {
			t.Errorf("Navigate(%q) mounted %q, want %q", e.Path, inst.PageID(), e.Page)
		}
	}
}

func TestSegment(t *testing.T) {
	r := newTestRouter(t, nil)
	tests := map[string]string{
		"/typescript":              "",
		"/typescript/":             "",
		"/typescript/hello-world":  "hello-world",
		"/typescript/hello-world/": "hello-world",
		"iframes":                  "iframes",
		"/typescriptish":           "typescriptish",
	}
	for in, want := range tests {
		if got := r.Segment(in); got != want {
			t.Errorf("Segment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestViewCheckedHighlightsOncePerMount(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		c := &highlight.Counter{}
		r := newTestRouter(t, c)
		if _, err := r.Navigate(context.Background(), "/typescript/hello-world"); err != nil {
			t.Fatal(err)
		}
		for range n {
			if _, err := r.ViewChecked(context.Background()); err != nil {
				t.Fatal(err)
			}
		}
		if c.Count() != 1 {
			t.Errorf("N=%d: highlighter ran %d times, want 1", n, c.Count())
		}
	}
}

func TestRemountStartsFresh(t *testing.T) {
	c := &highlight.Counter{}
	r := newTestRouter(t, c)
	ctx := context.Background()

	first, _ := r.Navigate(ctx, "/typescript/transactions")
	r.ViewChecked(ctx)
	if !first.Highlighted() {
		t.Fatal("first mount not highlighted")
	}

	second, _ := r.Navigate(ctx, "/typescript/transactions")
	if second.ID() == first.ID() {
		t.Fatal("remount reused the instance")
	}
	if second.Highlighted() {
		t.Error("remounted instance inherited the highlighted flag")
	}
	if first.State() != page.Destroyed {
		t.Errorf("previous instance state = %v, want destroyed", first.State())
	}
	r.ViewChecked(ctx)
	r.ViewChecked(ctx)
	if !second.Highlighted() || c.Count() != 2 {
		t.Errorf("second mount highlighted=%v, total calls %d, want true, 2", second.Highlighted(), c.Count())
	}
}

func TestNavigateAwayBeforeCheckpoint(t *testing.T) {
	c := &highlight.Counter{}
	r := newTestRouter(t, c)
	ctx := context.Background()

	abandoned, _ := r.Navigate(ctx, "/typescript/store-basics")
	if _, err := r.Navigate(ctx, "/typescript/store-advanced"); err != nil {
		t.Fatal(err)
	}
	if _, err := abandoned.AfterViewChecked(ctx, c, nil); !errors.Is(err, page.ErrDestroyed) {
		t.Errorf("late checkpoint on abandoned instance: err = %v", err)
	}
	if c.Count() != 0 {
		t.Errorf("highlighter ran %d times for a destroyed instance", c.Count())
	}
	if abandoned.Highlighted() {
		t.Error("abandoned instance marked highlighted")
	}
}

func TestOverviewThenAbstractions(t *testing.T) {
	c := &highlight.Counter{}
	rec := &recorder{}
	r := newTestRouter(t, c, WithObserver(rec))
	ctx := context.Background()

	overview, err := r.Navigate(ctx, "/typescript/overview")
	if err != nil {
		t.Fatal(err)
	}
	if overview.PageID() != "overview" {
		t.Fatalf("mounted %q, want overview", overview.PageID())
	}
	r.ViewChecked(ctx)
	r.ViewChecked(ctx)
	if c.Count() != 1 {
		t.Fatalf("after overview: %d calls, want 1", c.Count())
	}

	abstractions, err := r.Navigate(ctx, "/typescript/abstractions")
	if err != nil {
		t.Fatal(err)
	}
	if overview.State() != page.Destroyed {
		t.Error("overview still mounted")
	}
	if r.Active() != abstractions || abstractions.PageID() != "abstractions" {
		t.Fatal("abstractions not active")
	}
	r.ViewChecked(ctx)
	r.ViewChecked(ctx)
	r.ViewChecked(ctx)
	if c.Count() != 2 {
		t.Errorf("total calls = %d, want 2", c.Count())
	}

	want := []EventType{EventMounted, EventHighlighted, EventUnmounted, EventMounted, EventHighlighted}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	for _, ev := range rec.events {
		if ev.SessionID != "s1" {
			t.Errorf("event %s missing session id", ev.Type)
		}
	}
}

func TestUndeclaredPathMountsNotFound(t *testing.T) {
	rec := &recorder{}
	r := newTestRouter(t, &highlight.Counter{}, WithObserver(rec))

	for range 2 {
		inst, err := r.Navigate(context.Background(), "/typescript/does-not-exist")
		if err != nil {
			t.Fatalf("Navigate: %v", err)
		}
		if inst.PageID() != routes.NotFoundPage {
			t.Errorf("mounted %q, want %q", inst.PageID(), routes.NotFoundPage)
		}
	}
	types := rec.types()
	if len(types) == 0 || types[0] != EventNotFound {
		t.Errorf("events = %v, want not_found first", types)
	}
}

func TestMissingSourceFallsBackToBuiltinNotFound(t *testing.T) {
	lib, err := content.Load(fstest.MapFS{"overview.md": {Data: []byte("# Overview")}})
	if err != nil {
		t.Fatal(err)
	}
	r := New(routes.Default(), lib, nil)
	inst, err := r.Navigate(context.Background(), "iframes")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if inst.PageID() != routes.NotFoundPage {
		t.Errorf("mounted %q, want not-found", inst.PageID())
	}
	out, _ := inst.HTML()
	if !strings.Contains(out, "Page not found") {
		t.Errorf("builtin not-found page not rendered: %s", out)
	}
}

func TestGlobalScopeHighlightsSurface(t *testing.T) {
	var target *html.Node
	h := highlight.Func(func(root *html.Node) error {
		target = root
		return nil
	})
	r := newTestRouter(t, h, WithScope(highlight.ScopeGlobal))
	inst, _ := r.Navigate(context.Background(), "/typescript/logging")
	r.ViewChecked(context.Background())

	if target == nil || target == inst.Tree() {
		t.Fatal("global scope should pass the router surface")
	}
	if inst.Tree().Parent == nil || inst.Tree().Parent.Parent != target {
		t.Error("active tree is not mounted inside the surface")
	}
}

func TestHighlightFailureIsReported(t *testing.T) {
	rec := &recorder{}
	h := highlight.Func(func(*html.Node) error { return errors.New("no lexer") })
	r := newTestRouter(t, h, WithObserver(rec))
	r.Navigate(context.Background(), "/typescript/iframes")

	ran, err := r.ViewChecked(context.Background())
	if !ran || !errors.Is(err, page.ErrHighlight) {
		t.Fatalf("ViewChecked = (%v, %v), want (true, ErrHighlight)", ran, err)
	}
	var buf bytes.Buffer
	if _, err := r.RenderActive(&buf); err != nil {
		t.Fatalf("RenderActive after failure: %v", err)
	}
	types := rec.types()
	if types[len(types)-1] != EventHighlightFailed {
		t.Errorf("last event = %s, want highlight_failed", types[len(types)-1])
	}
}

func TestViewCheckedWithoutMount(t *testing.T) {
	c := &highlight.Counter{}
	r := newTestRouter(t, c)
	ran, err := r.ViewChecked(context.Background())
	if ran || err != nil || c.Count() != 0 {
		t.Errorf("ViewChecked on empty router = (%v, %v), calls %d", ran, err, c.Count())
	}
	if _, err := r.RenderActive(&bytes.Buffer{}); err == nil {
		t.Error("RenderActive with nothing mounted should fail")
	}
}

func TestClose(t *testing.T) {
	rec := &recorder{}
	r := newTestRouter(t, &highlight.Counter{}, WithObserver(rec))
	inst, _ := r.Navigate(context.Background(), "/typescript")
	r.Close()
	r.Close()

	if inst.State() != page.Destroyed || r.Active() != nil {
		t.Error("Close should unmount the active instance")
	}
	if _, err := r.Navigate(context.Background(), "/typescript"); !errors.Is(err, ErrClosed) {
		t.Errorf("Navigate after Close err = %v, want ErrClosed", err)
	}
	types := rec.types()
	if types[len(types)-1] != EventUnmounted {
		t.Errorf("last event = %s, want unmounted", types[len(types)-1])
	}
}

func TestConcurrentNavigationKeepsOneMounted(t *testing.T) {
	r := newTestRouter(t, &highlight.Counter{})
	paths := routes.Default().Paths()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := range 10 {
				p := paths[(i+j)%len(paths)]
				if _, err := r.Navigate(context.Background(), "/typescript/"+p); err != nil {
					t.Errorf("Navigate: %v", err)
				}
				r.ViewChecked(context.Background())
			}
		}(i)
	}
	wg.Wait()

	active := r.Active()
	if active == nil || active.State() == page.Destroyed {
		t.Fatal("no live instance after concurrent navigation")
	}
	mounted := 0
	for c := r.outlet.FirstChild; c != nil; c = c.NextSibling {
		mounted++
	}
	if mounted != 1 {
		t.Errorf("outlet holds %d trees, want 1", mounted)
	}
}

// stallObserver blocks the first mounted event for page until release is
// closed.
type stallObserver struct {
	page    string
	once    sync.Once
	stalled chan struct{}
	release chan struct{}
}

func (s *stallObserver) Observe(_ context.Context, ev Event) {
	if ev.Type != EventMounted || ev.PageID != s.page {
		return
	}
	s.once.Do(func() {
		close(s.stalled)
		<-s.release
	})
}

func TestVisitRendersItsOwnPage(t *testing.T) {
	chroma, err := highlight.NewChroma("github")
	if err != nil {
		t.Fatal(err)
	}
	c := &highlight.Counter{Next: chroma}
	stall := &stallObserver{page: "overview", stalled: make(chan struct{}), release: make(chan struct{})}
	r := newTestRouter(t, c, WithObserver(stall))

	var first bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := r.Visit(context.Background(), "/typescript/overview", &first)
		done <- err
	}()
	<-stall.stalled

	var second bytes.Buffer
	inst, err := r.Visit(context.Background(), "/typescript/abstractions", &second)
	if err != nil {
		t.Fatalf("Visit(abstractions): %v", err)
	}
	close(stall.release)
	if err := <-done; err != nil {
		t.Fatalf("Visit(overview): %v", err)
	}

	if !strings.Contains(first.String(), `data-page="overview"`) || strings.Contains(first.String(), `data-page="abstractions"`) {
		t.Errorf("overview visit rendered the wrong page: %.120s", first.String())
	}
	if !strings.Contains(first.String(), `class="chroma"`) {
		t.Error("overview visit was not highlighted")
	}
	if !strings.Contains(second.String(), `data-page="abstractions"`) {
		t.Errorf("abstractions visit rendered the wrong page: %.120s", second.String())
	}
	if r.Active() != inst {
		t.Error("last visit should stay mounted")
	}
	if c.Count() != 2 {
		t.Errorf("highlighter ran %d times, want 2", c.Count())
	}
}

func TestVisitHighlightFailureStillRenders(t *testing.T) {
	h := highlight.Func(func(*html.Node) error { return errors.New("no lexer") })
	r := newTestRouter(t, h)

	var buf bytes.Buffer
	inst, err := r.Visit(context.Background(), "/typescript/hello-world", &buf)
	if !errors.Is(err, page.ErrHighlight) {
		t.Fatalf("err = %v, want ErrHighlight", err)
	}
	if inst == nil || !inst.Highlighted() {
		t.Error("failed pass should still mark the instance highlighted")
	}
	if !strings.Contains(buf.String(), `class="language-typescript"`) {
		t.Error("plain page should be written after a highlight failure")
	}
}

func TestVisitCancelledWritesNothing(t *testing.T) {
	c := &highlight.Counter{}
	r := newTestRouter(t, c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	inst, err := r.Visit(ctx, "/typescript/logging", &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Error("cancelled visit should write nothing")
	}
	if inst.State() != page.Created || c.Count() != 0 {
		t.Errorf("state = %s, calls = %d; want created, 0", inst.State(), c.Count())
	}
	if ran, _ := r.ViewChecked(context.Background()); !ran {
		t.Error("a later checkpoint should still highlight the page")
	}
}

func TestCheckInstanceRejectsStaleMount(t *testing.T) {
	c := &highlight.Counter{}
	r := newTestRouter(t, c)
	ctx := context.Background()

	old, _ := r.Navigate(ctx, "/typescript/overview")
	cur, _ := r.Navigate(ctx, "/typescript/abstractions")

	if ran, err := r.CheckInstance(ctx, old.ID(), nil); ran || !errors.Is(err, ErrStale) {
		t.Errorf("CheckInstance(old) = (%v, %v), want ErrStale", ran, err)
	}
	if c.Count() != 0 || cur.Highlighted() {
		t.Error("a stale checkpoint must not highlight the new page")
	}

	var buf bytes.Buffer
	ran, err := r.CheckInstance(ctx, cur.ID(), &buf)
	if !ran || err != nil {
		t.Fatalf("CheckInstance(cur) = (%v, %v)", ran, err)
	}
	if !strings.Contains(buf.String(), `data-page="abstractions"`) {
		t.Error("highlighted markup not written")
	}
	if ran, err := r.CheckInstance(ctx, cur.ID(), &buf); ran || err != nil {
		t.Errorf("second CheckInstance = (%v, %v), want (false, nil)", ran, err)
	}
	if c.Count() != 1 {
		t.Errorf("highlighter ran %d times, want 1", c.Count())
	}
}
