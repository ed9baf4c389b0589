package observability_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/sinapp/dbopen"
	"github.com/hazyhaar/sinapp/idgen"
	"github.com/hazyhaar/sinapp/kit"
	"github.com/hazyhaar/sinapp/observability"
)

func newLogger(t *testing.T, opts ...observability.Option) *observability.EventLogger {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithMigrations(observability.Migration))
	return observability.NewEventLogger(db, slog.New(slog.DiscardHandler), opts...)
}

func TestRecord_FillsFromContext(t *testing.T) {
	l := newLogger(t, observability.WithIDGenerator(idgen.Sequence("evt_1")))

	ctx := kit.WithUserID(context.Background(), "u-1")
	ctx = kit.WithSessionID(ctx, "sess-1")
	ctx = kit.WithTraceID(ctx, "trace-1")
	ctx = kit.WithTabID(ctx, "tab-1")

	l.Record(ctx, observability.Event{
		Type:    observability.TypeWizardTransition,
		Action:  "next",
		Details: map[string]string{"from": "privacyStatement", "to": "requestDetails"},
		Success: true,
	})
	require.NoError(t, l.Close())

	events, err := l.Query(context.Background(), observability.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "evt_1", e.ID)
	assert.Equal(t, "u-1", e.UserID)
	assert.Equal(t, "sess-1", e.SessionID)
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Equal(t, "tab-1", e.EntityID)
	assert.Equal(t, "requestDetails", e.Details["to"])
	assert.True(t, e.Success)
}

func TestQuery_Filters(t *testing.T) {
	l := newLogger(t)
	ctx := context.Background()

	l.Record(ctx, observability.Event{Type: observability.TypeAuthLogin, EntityID: "a@example.org", Action: "login", Success: true})
	l.Record(ctx, observability.Event{Type: observability.TypeAuthLogin, EntityID: "b@example.org", Action: "login"})
	l.Record(ctx, observability.Event{Type: observability.TypeWizardSubmitted, EntityID: "tab", Action: "submit", Success: true})
	require.NoError(t, l.Close())

	logins, err := l.Query(ctx, observability.Filter{Type: observability.TypeAuthLogin})
	require.NoError(t, err)
	assert.Len(t, logins, 2)

	one, err := l.Query(ctx, observability.Filter{EntityID: "b@example.org"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.False(t, one[0].Success)

	limited, err := l.Query(ctx, observability.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecord_SmallBufferStillPersists(t *testing.T) {
	l := newLogger(t, observability.WithBuffer(0))
	ctx := context.Background()
	for range 5 {
		l.Record(ctx, observability.Event{Type: observability.TypeWizardTransition, Action: "next"})
	}
	require.NoError(t, l.Close())

	events, err := l.Query(ctx, observability.Filter{})
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestCleanup(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	l := newLogger(t, observability.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	l.Record(ctx, observability.Event{Type: "old", Action: "x", At: now.AddDate(0, 0, -40)})
	l.Record(ctx, observability.Event{Type: "new", Action: "x", At: now.AddDate(0, 0, -1)})
	require.NoError(t, l.Close())

	n, err := l.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = l.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	events, err := l.Query(ctx, observability.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].Type)
}

func TestNop(t *testing.T) {
	var r observability.Recorder = observability.Nop{}
	r.Record(context.Background(), observability.Event{Type: "x"})
}
