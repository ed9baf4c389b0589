// Package observability records business events (wizard transitions,
// submissions, staff logins) into SQLite.
//
// Events are buffered and flushed in batches by a background goroutine. A
// full buffer falls back to a synchronous insert. Persistence failures are
// logged and swallowed so that the event log never fails a request.
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/sinapp/dbopen"
	"github.com/hazyhaar/sinapp/idgen"
	"github.com/hazyhaar/sinapp/kit"
)

// Event types written by the service.
const (
	TypeWizardTransition = "wizard.transition"
	TypeWizardAbandoned  = "wizard.abandoned"
	TypeWizardSubmitted  = "wizard.submitted"
	TypeAuthLogin        = "auth.login"
)

// Migration creates the business_event_logs table.
var Migration = dbopen.Migration{
	Name: "events_001_business_event_logs",
	SQL: `
CREATE TABLE business_event_logs (
    event_id    TEXT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    entity_id   TEXT NOT NULL DEFAULT '',
    user_id     TEXT NOT NULL DEFAULT '',
    session_id  TEXT NOT NULL DEFAULT '',
    trace_id    TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    details     TEXT NOT NULL DEFAULT '{}',
    success     INTEGER NOT NULL,
    created_at  INTEGER NOT NULL
);
CREATE INDEX idx_events_type_time ON business_event_logs(event_type, created_at DESC);
CREATE INDEX idx_events_time ON business_event_logs(created_at DESC);`,
}

// Event is a single business event. EntityID is the wizard tab id for wizard
// events and the staff email for logins.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	EntityID  string            `json:"entityId,omitempty"`
	UserID    string            `json:"userId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	TraceID   string            `json:"traceId,omitempty"`
	Action    string            `json:"action,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Success   bool              `json:"success"`
	At        time.Time         `json:"at"`
}

// Recorder is what handlers depend on.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// EventLogger persists events asynchronously.
type EventLogger struct {
	db            *sql.DB
	logger        *slog.Logger
	newID         idgen.Generator
	batchSize     int
	flushInterval time.Duration
	now           func() time.Time

	ch   chan Event
	stop chan struct{}
	done chan struct{}
}

// Option configures an EventLogger.
type Option func(*EventLogger)

// WithIDGenerator sets the generator used for event ids.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *EventLogger) { l.newID = gen }
}

// WithBuffer sets the channel capacity. Default: 1000.
func WithBuffer(n int) Option {
	return func(l *EventLogger) { l.ch = make(chan Event, n) }
}

// WithFlushInterval sets how often partial batches are written. Default: 2s.
func WithFlushInterval(d time.Duration) Option {
	return func(l *EventLogger) { l.flushInterval = d }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *EventLogger) { l.now = now }
}

// NewEventLogger starts the flush goroutine. Call Close on shutdown.
func NewEventLogger(db *sql.DB, logger *slog.Logger, opts ...Option) *EventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &EventLogger{
		db:            db,
		logger:        logger,
		newID:         idgen.Prefixed("evt_", idgen.Default),
		batchSize:     100,
		flushInterval: 2 * time.Second,
		now:           time.Now,
		ch:            make(chan Event, 1000),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	go l.flushLoop()
	return l
}

// Record queues e. Missing ids, timestamps and request correlation fields
// are filled from ctx.
func (l *EventLogger) Record(ctx context.Context, e Event) {
	l.fill(ctx, &e)
	select {
	case l.ch <- e:
	default:
		l.logger.Warn("event buffer full, sync fallback", "event_type", e.Type)
		if err := l.insert(context.WithoutCancel(ctx), e); err != nil {
			l.logger.Error("event log: sync fallback failed", "error", err, "event_type", e.Type)
		}
	}
}

// Close drains the buffer and stops the flush goroutine.
func (l *EventLogger) Close() error {
	close(l.stop)
	<-l.done
	return nil
}

// Cleanup deletes events older than retentionDays. Zero or negative keeps
// everything.
func (l *EventLogger) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	threshold := l.now().AddDate(0, 0, -retentionDays).Unix()
	res, err := dbopen.Exec(ctx, l.db, `DELETE FROM business_event_logs WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("observability: cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Filter selects events for Query. Zero values mean no constraint.
type Filter struct {
	Type     string
	EntityID string
	Since    time.Time
	Limit    int // default 100
}

// Query returns matching events, newest first.
func (l *EventLogger) Query(ctx context.Context, f Filter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "event_type = ?")
		args = append(args, f.Type)
	}
	if f.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, f.EntityID)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.Unix())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	q := `SELECT event_id, event_type, entity_id, user_id, session_id, trace_id,
		action, details, success, created_at FROM business_event_logs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, event_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("observability: query: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			details string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.EntityID, &e.UserID, &e.SessionID, &e.TraceID,
			&e.Action, &details, &e.Success, &created); err != nil {
			return nil, fmt.Errorf("observability: scan: %w", err)
		}
		if details != "" && details != "{}" {
			_ = json.Unmarshal([]byte(details), &e.Details)
		}
		e.At = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// StartRetention runs Cleanup once a day until ctx is done.
func (l *EventLogger) StartRetention(ctx context.Context, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := l.Cleanup(ctx, retentionDays)
				if err != nil {
					l.logger.Warn("event retention", "error", err)
					continue
				}
				if n > 0 {
					l.logger.Info("event retention", "deleted", n)
				}
			}
		}
	}()
}

func (l *EventLogger) fill(ctx context.Context, e *Event) {
	if e.ID == "" {
		e.ID = l.newID()
	}
	if e.At.IsZero() {
		e.At = l.now()
	}
	if e.UserID == "" {
		e.UserID = kit.GetUserID(ctx)
	}
	if e.SessionID == "" {
		e.SessionID = kit.GetSessionID(ctx)
	}
	if e.TraceID == "" {
		e.TraceID = kit.GetTraceID(ctx)
	}
	if e.EntityID == "" {
		e.EntityID = kit.GetTabID(ctx)
	}
}

func (l *EventLogger) flushLoop() {
	defer close(l.done)
	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()
	batch := make([]Event, 0, l.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := dbopen.RunTx(ctx, l.db, func(tx *sql.Tx) error {
			for _, e := range batch {
				if err := insertTx(ctx, tx, e); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			l.logger.Error("event log: flush", "error", err, "events", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-l.stop:
			for {
				select {
				case e := <-l.ch:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		case e := <-l.ch:
			batch = append(batch, e)
			if len(batch) >= l.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertSQL = `INSERT INTO business_event_logs
	(event_id, event_type, entity_id, user_id, session_id, trace_id, action, details, success, created_at)
	VALUES (?,?,?,?,?,?,?,?,?,?)`

func insertTx(ctx context.Context, x execer, e Event) error {
	details := "{}"
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = string(b)
	}
	_, err := x.ExecContext(ctx, insertSQL,
		e.ID, e.Type, e.EntityID, e.UserID, e.SessionID, e.TraceID,
		e.Action, details, e.Success, e.At.Unix())
	return err
}

func (l *EventLogger) insert(ctx context.Context, e Event) error {
	return insertTx(ctx, l.db, e)
}

// Nop discards events.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) {}
