// Package shell renders the site chrome around a mounted page: header,
// section navigation, optional hero and footer.
package shell

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/vmware/transport-docs/internal/content"
	"github.com/vmware/transport-docs/internal/routes"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Options configures a Shell.
type Options struct {
	SiteTitle string
	BasePath  string
	// Sections are linked from the header. Defaults to one link to BasePath.
	Sections []Link
}

// Link is a header entry pointing at a documentation section.
type Link struct {
	Name string
	Href string
}

// NavGroup is one section's topic list on the welcome page.
type NavGroup struct {
	Name  string
	Items []NavItem
}

// NavItem is one entry in the section navigation.
type NavItem struct {
	PageID  string
	Title   string
	Summary string
	Href    string
	Active  bool
}

// View is the per-request data the layout renders.
type View struct {
	Title   string
	PageID  string
	Nav     []NavItem
	Hero    bool
	Content template.HTML
}

type layoutData struct {
	View
	SiteTitle string
	BasePath  string
	Sections  []Link
	Year      int
}

// Shell holds the parsed templates.
type Shell struct {
	opts Options
	tmpl *template.Template
}

// New parses the embedded templates.
func New(opts Options) (*Shell, error) {
	if opts.SiteTitle == "" {
		opts.SiteTitle = "Transport"
	}
	opts.BasePath = strings.TrimRight(opts.BasePath, "/")
	if len(opts.Sections) == 0 {
		href := opts.BasePath
		if href == "" {
			href = "/"
		}
		opts.Sections = []Link{{Name: "Documentation", Href: href}}
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing shell templates: %w", err)
	}
	return &Shell{opts: opts, tmpl: tmpl}, nil
}

// BasePath returns the prefix the section is served under.
func (s *Shell) BasePath() string { return s.opts.BasePath }

// Render writes a full HTML document for v.
func (s *Shell) Render(w io.Writer, v View) error {
	data := layoutData{
		View:      v,
		SiteTitle: s.opts.SiteTitle,
		BasePath:  s.opts.BasePath,
		Sections:  s.opts.Sections,
		Year:      time.Now().Year(),
	}
	// Buffer so a template error never leaves a half-written page.
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("rendering layout: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderWelcome writes the landing page with the hero and one topic list
// per section.
func (s *Shell) RenderWelcome(w io.Writer, groups []NavGroup) error {
	var body bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&body, "welcome", groups); err != nil {
		return fmt.Errorf("rendering welcome: %w", err)
	}
	return s.Render(w, View{
		Hero:    true,
		Content: template.HTML(body.String()),
	})
}

// Navigation lists every page of the table once, in declaration order,
// linked at its canonical path.
func (s *Shell) Navigation(table *routes.Table, lib *content.Library, activePage string) []NavItem {
	pages := table.Pages()
	items := make([]NavItem, 0, len(pages))
	for _, id := range pages {
		href := s.opts.BasePath
		if p, _ := table.PathFor(id); p != "" {
			href += "/" + p
		}
		if href == "" {
			href = "/"
		}
		item := NavItem{
			PageID: id,
			Title:  id,
			Href:   href,
			Active: id == activePage,
		}
		if src, err := lib.Get(id); err == nil {
			item.Title = src.Title
			item.Summary = src.Summary
		}
		items = append(items, item)
	}
	return items
}

// Static serves the embedded stylesheet and script. Mount it with the
// /static/ prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
