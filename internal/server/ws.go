package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vmware/transport-docs/internal/page"
	"github.com/vmware/transport-docs/internal/router"
	"github.com/vmware/transport-docs/internal/routes"
	"github.com/vmware/transport-docs/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type       string `json:"type"` // "navigate" or "view_checked"
	Path       string `json:"path,omitempty"`
	InstanceID string `json:"instance_id,omitempty"` // view_checked: the mount the client painted
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type       string `json:"type"` // "page", "highlighted", "noop", "stale" or "error"
	InstanceID string `json:"instance_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Path       string `json:"path,omitempty"`
	NotFound   bool   `json:"not_found,omitempty"`
	HTML       string `json:"html,omitempty"`
	Error      string `json:"error,omitempty"`
}

// wsConn is one open navigation channel and the session it drives.
type wsConn struct {
	sec    *Section
	sess   *session.Session
	detach func()
}

// handleWebSocket drives client-side navigation. A navigate message mounts a
// page and returns its plain markup with the instance id; the client answers
// with view_checked for that id once the markup is in the DOM, which
// triggers the one highlighting pass. The session stays attached while the
// socket is open, so it is never swept under an active visitor.
func (s *Server) handleWebSocket(sec *Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}
		sess, created := sec.Sessions.GetOrCreate(id)

		header := http.Header{}
		if created {
			header.Add("Set-Cookie", sessionCookie(sec, sess.ID).String())
		}
		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			s.logger.Warn("websocket upgrade", "error", err)
			return
		}
		defer conn.Close()

		c := &wsConn{sec: sec, sess: sess, detach: sess.Attach()}
		defer func() { c.detach() }()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Warn("websocket read", "error", err)
				}
				return
			}
			c.sess.Touch()

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				s.send(conn, wsResponse{Type: "error", Error: "invalid message format"})
				continue
			}

			switch req.Type {
			case "navigate":
				s.send(conn, s.wsNavigate(r, c, req.Path))
			case "view_checked":
				s.send(conn, s.wsViewChecked(r, c.sess, req.InstanceID))
			default:
				s.send(conn, wsResponse{Type: "error", Error: "unknown message type: " + req.Type})
			}
		}
	}
}

func (s *Server) wsNavigate(r *http.Request, c *wsConn, path string) wsResponse {
	inst, err := c.sess.Router.Navigate(r.Context(), path)
	if errors.Is(err, router.ErrClosed) {
		// The session was removed under us; carry on in a fresh one.
		c.detach()
		c.sess = c.sec.Sessions.Create()
		c.detach = c.sess.Attach()
		inst, err = c.sess.Router.Navigate(r.Context(), path)
	}
	if err != nil {
		return wsResponse{Type: "error", Error: err.Error()}
	}
	html, err := inst.HTML()
	if err != nil {
		return wsResponse{Type: "error", Error: err.Error()}
	}
	return wsResponse{
		Type:       "page",
		InstanceID: inst.ID(),
		PageID:     inst.PageID(),
		Title:      inst.Title(),
		Path:       inst.Path(),
		NotFound:   inst.PageID() == routes.NotFoundPage,
		HTML:       html,
	}
}

func (s *Server) wsViewChecked(r *http.Request, sess *session.Session, instanceID string) wsResponse {
	var buf bytes.Buffer
	ran, err := sess.Router.CheckInstance(r.Context(), instanceID, &buf)
	switch {
	case errors.Is(err, router.ErrStale):
		return wsResponse{Type: "stale", InstanceID: instanceID}
	case err != nil && !errors.Is(err, page.ErrHighlight):
		return wsResponse{Type: "error", InstanceID: instanceID, Error: err.Error()}
	case !ran:
		return wsResponse{Type: "noop", InstanceID: instanceID}
	}

	resp := wsResponse{Type: "highlighted", InstanceID: instanceID, HTML: buf.String()}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func (s *Server) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn("websocket write", "error", err)
	}
}
