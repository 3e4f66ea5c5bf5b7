package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vmware/transport-docs/internal/db"
	"github.com/vmware/transport-docs/internal/logging"
	"github.com/vmware/transport-docs/internal/router"
)

// ErrNotFound is returned by GetByID for an unknown id.
var ErrNotFound = errors.New("lifecycle entry not found")

// timeLayout is fixed width so text comparison in SQL orders correctly.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store provides CRUD operations for lifecycle entries.
type Store struct {
	db     *db.DB
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used by Observe.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logging.Component(l, "audit") }
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB, opts ...StoreOption) *Store {
	s := &Store{db: database, logger: logging.Component(nil, "audit")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Log inserts a new entry. If entry.ID is empty a UUID is generated, and a
// zero Timestamp is set to now.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if !entry.Event.Valid() {
		return fmt.Errorf("unknown lifecycle event %q", entry.Event)
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lifecycle_events (
			id, timestamp, session_id, instance_id, page_id, path, event, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(timeLayout),
		entry.SessionID,
		entry.InstanceID,
		entry.PageID,
		entry.Path,
		string(entry.Event),
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting lifecycle entry: %w", err)
	}
	return nil
}

// Observe records a router event. Failures are logged, not returned, so a
// broken database never blocks navigation.
func (s *Store) Observe(ctx context.Context, ev router.Event) {
	entry := Entry{
		Timestamp:  ev.Time,
		SessionID:  ev.SessionID,
		InstanceID: ev.InstanceID,
		PageID:     ev.PageID,
		Path:       ev.Path,
		Event:      Event(ev.Type),
		Detail:     ev.Detail,
	}
	if err := s.Log(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("recording lifecycle event failed", "event", string(ev.Type), "error", err)
	}
}

// GetByID retrieves a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// QueryFilter controls which entries are returned by Query.
type QueryFilter struct {
	SessionID  string
	InstanceID string
	PageID     string
	Event      Event
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

const selectColumns = "SELECT id, timestamp, session_id, instance_id, page_id, path, event, detail FROM lifecycle_events"

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.InstanceID != "" {
		clauses = append(clauses, "instance_id = ?")
		args = append(args, filter.InstanceID)
	}
	if filter.PageID != "" {
		clauses = append(clauses, "page_id = ?")
		args = append(args, filter.PageID)
	}
	if filter.Event != "" {
		clauses = append(clauses, "event = ?")
		args = append(args, string(filter.Event))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(timeLayout))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY seq DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lifecycle entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM lifecycle_events WHERE timestamp < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old lifecycle entries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e         Entry
		ts, event string
	)

	err := sc.Scan(&e.ID, &ts, &e.SessionID, &e.InstanceID, &e.PageID, &e.Path, &event, &e.Detail)
	if err != nil {
		return nil, err
	}

	e.Event = Event(event)
	if t, parseErr := time.Parse(timeLayout, ts); parseErr == nil {
		e.Timestamp = t
	}
	return &e, nil
}
