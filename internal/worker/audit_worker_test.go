package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/events"
	"tally/internal/store/sqlite"
)

func newWorker(t *testing.T) *AuditWorker {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewAuditWorker(st, nil)
}

func TestHandleRecordEvent(t *testing.T) {
	w := newWorker(t)

	for _, action := range []string{events.ActionCreated, events.ActionUpdated, events.ActionDeleted} {
		ev := events.NewRecordEvent(action, 7, 42)
		assert.NoError(t, w.HandleRecordEvent(ev), "action %s", action)
	}
}

func TestHandleRecordEventFillsMissingTimestamp(t *testing.T) {
	w := newWorker(t)

	ev := &events.RecordEvent{Action: events.ActionCreated, RecordID: 1, UserID: 2}
	assert.True(t, ev.Timestamp.IsZero())
	assert.NoError(t, w.HandleRecordEvent(ev))
}

func TestHandleRecordEventDropsUnknownAction(t *testing.T) {
	w := newWorker(t)

	ev := &events.RecordEvent{Action: "archived", RecordID: 1, UserID: 2, Timestamp: time.Now()}
	// Unknown actions must not error, or the delivery would requeue forever.
	assert.NoError(t, w.HandleRecordEvent(ev))
}
