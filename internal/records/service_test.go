package records_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/events"
	"tally/internal/records"
	"tally/internal/store"
	"tally/internal/store/sqlite"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []*events.RecordEvent
}

func (p *capturePublisher) PublishRecordEvent(_ context.Context, ev *events.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Action)
	}
	return out
}

func newService(t *testing.T) (*records.Service, *capturePublisher, int64) {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	user, err := st.CreateUser(context.Background(), core.User{
		Username: "alice", Email: "alice@example.com", PasswordHash: "h", Name: "Alice",
	})
	require.NoError(t, err)

	pub := &capturePublisher{}
	return records.NewService(st, pub, nil), pub, user.ID
}

func money(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

func TestCreateRecord(t *testing.T) {
	svc, pub, userID := newService(t)

	date, _ := core.ParseDate("2024-01-15")
	note := "午餐"
	created, err := svc.Create(context.Background(), userID, records.CreateInput{
		Amount:   money(10000),
		Kind:     core.KindExpense,
		Category: "食品",
		Note:     &note,
		Date:     date,
	})
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "2024-01-15", created.Date.String())
	assert.Equal(t, []string{events.ActionCreated}, pub.actions())
}

func TestCreateRecordDefaults(t *testing.T) {
	svc, _, userID := newService(t)

	created, err := svc.Create(context.Background(), userID, records.CreateInput{
		Amount:   money(500),
		Kind:     core.KindIncome,
		Category: "gift",
	})
	require.NoError(t, err)

	// Note defaults to empty, date to today.
	assert.Equal(t, "", created.Note)
	assert.False(t, created.Date.IsZero())
}

func TestCreateRecordValidation(t *testing.T) {
	svc, pub, userID := newService(t)

	tests := []struct {
		name string
		in   records.CreateInput
	}{
		{name: "missing amount", in: records.CreateInput{Kind: core.KindExpense, Category: "食品"}},
		{name: "missing kind", in: records.CreateInput{Amount: money(100), Category: "食品"}},
		{name: "missing category", in: records.CreateInput{Amount: money(100), Kind: core.KindExpense}},
		{name: "zero amount", in: records.CreateInput{Amount: money(0), Kind: core.KindExpense, Category: "食品"}},
		{name: "negative amount", in: records.CreateInput{Amount: money(-100), Kind: core.KindExpense, Category: "食品"}},
		{name: "bad kind", in: records.CreateInput{Amount: money(100), Kind: "transfer", Category: "食品"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, tt.in)
			assert.Equal(t, apperr.KindValidation, apperr.Kind(err))
		})
	}

	// Nothing was published for rejected inputs.
	assert.Empty(t, pub.actions())
}

func TestUpdateRecord(t *testing.T) {
	svc, pub, userID := newService(t)

	created, err := svc.Create(context.Background(), userID, records.CreateInput{
		Amount: money(10000), Kind: core.KindExpense, Category: "食品",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), userID, created.ID, records.UpdateInput{
		Amount: money(12000),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), updated.Amount.Cents)
	assert.Equal(t, "食品", updated.Category)
	assert.Equal(t, []string{events.ActionCreated, events.ActionUpdated}, pub.actions())
}

func TestUpdateRecordValidation(t *testing.T) {
	svc, _, userID := newService(t)

	created, err := svc.Create(context.Background(), userID, records.CreateInput{
		Amount: money(10000), Kind: core.KindExpense, Category: "食品",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), userID, created.ID, records.UpdateInput{Amount: money(-5)})
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	badKind := core.Kind("transfer")
	_, err = svc.Update(context.Background(), userID, created.ID, records.UpdateInput{Kind: &badKind})
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	empty := ""
	_, err = svc.Update(context.Background(), userID, created.ID, records.UpdateInput{Category: &empty})
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	// Whitespace-only is as empty as empty, same as on create.
	blank := "  "
	_, err = svc.Update(context.Background(), userID, created.ID, records.UpdateInput{Category: &blank})
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	// Nothing was stored by the rejected patches.
	got, err := svc.Update(context.Background(), userID, created.ID, records.UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, "食品", got.Category)
}

func TestUpdateMissingRecord(t *testing.T) {
	svc, _, userID := newService(t)

	_, err := svc.Update(context.Background(), userID, 9999, records.UpdateInput{Amount: money(1)})
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))
}

func TestDeleteRecord(t *testing.T) {
	svc, pub, userID := newService(t)

	created, err := svc.Create(context.Background(), userID, records.CreateInput{
		Amount: money(10000), Kind: core.KindExpense, Category: "食品",
	})
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, []string{events.ActionCreated, events.ActionDeleted}, pub.actions())

	_, err = svc.Delete(context.Background(), userID, created.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))
}

func TestListRejectsUnknownKind(t *testing.T) {
	svc, _, userID := newService(t)

	_, err := svc.List(context.Background(), userID, store.RecordFilter{Kind: "transfer"})
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))
}

func TestListEmpty(t *testing.T) {
	svc, _, userID := newService(t)

	recs, err := svc.List(context.Background(), userID, store.RecordFilter{})
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}
