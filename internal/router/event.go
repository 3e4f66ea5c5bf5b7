package router

import (
	"context"
	"time"
)

// EventType names a lifecycle transition.
type EventType string

const (
	EventMounted         EventType = "mounted"
	EventHighlighted     EventType = "highlighted"
	EventHighlightFailed EventType = "highlight_failed"
	EventUnmounted       EventType = "unmounted"
	EventNotFound        EventType = "not_found"
)

// Event describes one transition of a session's active page.
type Event struct {
	Type       EventType `json:"type"`
	SessionID  string    `json:"session_id"`
	InstanceID string    `json:"instance_id"`
	PageID     string    `json:"page_id"`
	Path       string    `json:"path"`
	Detail     string    `json:"detail,omitempty"`
	Time       time.Time `json:"time"`
}

// Observer receives events after the router has released its lock.
// Implementations must not call back into the router.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f(ctx, ev).
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }
