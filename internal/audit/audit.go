// Package audit records page lifecycle events so mount and highlight
// behaviour can be inspected after the fact.
package audit

import "time"

// Event is the lifecycle transition an entry records.
type Event string

const (
	EventMounted         Event = "mounted"
	EventHighlighted     Event = "highlighted"
	EventHighlightFailed Event = "highlight_failed"
	EventUnmounted       Event = "unmounted"
	EventNotFound        Event = "not_found"
)

// Valid reports whether e is one of the known events.
func (e Event) Valid() bool {
	switch e {
	case EventMounted, EventHighlighted, EventHighlightFailed, EventUnmounted, EventNotFound:
		return true
	}
	return false
}

// Entry is a single lifecycle record.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"session_id"`
	InstanceID string    `json:"instance_id,omitempty"`
	PageID     string    `json:"page_id,omitempty"`
	Path       string    `json:"path"`
	Event      Event     `json:"event"`
	Detail     string    `json:"detail,omitempty"`
}
