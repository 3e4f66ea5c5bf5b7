package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/vmware/transport-docs/internal/page"
	"github.com/vmware/transport-docs/internal/router"
	"github.com/vmware/transport-docs/internal/routes"
	"github.com/vmware/transport-docs/internal/session"
	"github.com/vmware/transport-docs/internal/shell"
)

// SessionCookie carries the session id between requests. Each section
// scopes its own cookie to its base path.
const SessionCookie = "transport_docs_session"

// session returns the caller's session in sec, setting the cookie when a new
// one was created.
func (s *Server) session(w http.ResponseWriter, r *http.Request, sec *Section) *session.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, created := sec.Sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, sessionCookie(sec, sess.ID))
	}
	return sess
}

func sessionCookie(sec *Section, id string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     sec.BasePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	if len(s.deps.Sections) == 0 {
		http.NotFound(w, r)
		return
	}
	groups := make([]shell.NavGroup, 0, len(s.deps.Sections))
	for i := range s.deps.Sections {
		sec := &s.deps.Sections[i]
		groups = append(groups, shell.NavGroup{
			Name:  sec.Name,
			Items: sec.Shell.Navigation(sec.Table, s.deps.Library, ""),
		})
	}

	var buf bytes.Buffer
	if err := s.deps.Sections[0].Shell.RenderWelcome(&buf, groups); err != nil {
		s.logger.Error("rendering welcome page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// handlePage mounts the requested page in the caller's router, fires the
// view checkpoint and renders the result inside the section's shell. The
// three steps run as one Visit, so a concurrent request on the same session
// cannot swap the page in between.
func (s *Server) handlePage(sec *Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := s.session(w, r, sec)

		var article bytes.Buffer
		inst, err := sess.Router.Visit(ctx, r.URL.Path, &article)
		if errors.Is(err, router.ErrClosed) {
			// Swept between lookup and visit.
			sess = sec.Sessions.Create()
			http.SetCookie(w, sessionCookie(sec, sess.ID))
			article.Reset()
			inst, err = sess.Router.Visit(ctx, r.URL.Path, &article)
		}
		switch {
		case err == nil, errors.Is(err, page.ErrHighlight):
		case ctx.Err() != nil:
			s.logger.Debug("request cancelled before the page settled", "path", r.URL.Path, "error", err)
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
			return
		default:
			s.logger.Error("visiting page", "path", r.URL.Path, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if inst.PageID() == routes.NotFoundPage {
			status = http.StatusNotFound
		}

		var doc bytes.Buffer
		err = sec.Shell.Render(&doc, shell.View{
			Title:   inst.Title(),
			PageID:  inst.PageID(),
			Nav:     sec.Shell.Navigation(sec.Table, s.deps.Library, inst.PageID()),
			Content: template.HTML(article.String()),
		})
		if err != nil {
			s.logger.Error("rendering shell", "path", r.URL.Path, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		doc.WriteTo(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
