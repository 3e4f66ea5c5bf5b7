// Package session keeps one section router per browser session and drops
// sessions that have gone idle.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmware/transport-docs/internal/logging"
	"github.com/vmware/transport-docs/internal/router"
)

// Factory builds the router for a new session.
type Factory func(id string) *router.SectionRouter

// Session pairs a client id with its router.
type Session struct {
	ID     string
	Router *router.SectionRouter

	mu       sync.Mutex
	lastSeen time.Time
	conns    int
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Touch marks the session used now.
func (s *Session) Touch() { s.touch(time.Now()) }

func (s *Session) touch(t time.Time) {
	s.mu.Lock()
	s.lastSeen = t
	s.mu.Unlock()
}

// Attach records an open live connection. Sweep keeps a session while any
// connection is attached. The returned func detaches it and marks the
// session used; calling it more than once has no further effect.
func (s *Session) Attach() (detach func()) {
	s.mu.Lock()
	s.conns++
	s.lastSeen = time.Now()
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.conns--
			s.lastSeen = time.Now()
			s.mu.Unlock()
		})
	}
}

// idleSince reports whether the session has no attached connection and was
// last used before cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns == 0 && s.lastSeen.Before(cutoff)
}

// Manager owns every live session.
type Manager struct {
	factory Factory
	ttl     time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = logging.Component(l, "session") }
}

// NewManager creates a Manager. Sessions idle for longer than ttl are
// removed by Sweep.
func NewManager(factory Factory, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		ttl:      ttl,
		logger:   logging.Component(nil, "session"),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a session with a fresh id.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := &Session{ID: id, Router: m.factory(id), lastSeen: time.Now()}

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug("session created", "session", id, "live", n)
	return s
}

// Get returns the session for id and marks it used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(time.Now())
	}
	return s, ok
}

// GetOrCreate returns the session for id, or a new one when id is empty or
// unknown. The second result reports whether a session was created; the
// caller must then hand the new id back to the client.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Remove drops the session and closes its router.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Router.Close()
	}
	return ok
}

// Sweep removes sessions idle since before now minus the ttl and returns how
// many were dropped. Sessions with an attached connection are never idle.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.ttl)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Router.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("swept idle sessions", "removed", len(expired), "live", m.Len())
	}
	return len(expired)
}

// Run sweeps every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close removes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Router.Close()
	}
}
