package server

import (
	"bytes"
	"net/http"
)

// routeInfo is one row of /api/routes.
type routeInfo struct {
	Section string `json:"section"`
	Path    string `json:"path"`
	URL     string `json:"url"`
	Page    string `json:"page"`
	Title   string `json:"title"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	out := []routeInfo{}
	for i := range s.deps.Sections {
		sec := &s.deps.Sections[i]
		for _, e := range sec.Table.Entries() {
			url := sec.BasePath()
			if e.Path != "" {
				url += "/" + e.Path
			}
			out = append(out, routeInfo{
				Section: sec.Name,
				Path:    e.Path,
				URL:     url,
				Page:    e.Page,
				Title:   s.deps.Library.Title(e.Page),
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	if s.deps.Styles == nil {
		return
	}
	var buf bytes.Buffer
	if err := s.deps.Styles.CSS(&buf); err != nil {
		s.logger.Error("writing highlight stylesheet", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	buf.WriteTo(w)
}
