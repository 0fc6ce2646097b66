// Package worker consumes record events from the broker and appends
// them to the durable audit trail.
package worker

import (
	"context"
	"fmt"
	"time"

	"tally/internal/events"
	"tally/internal/log"
	"tally/internal/store"
)

// AuditWorker persists record mutation events as audit entries.
type AuditWorker struct {
	store  store.Store
	logger *log.Logger
}

// NewAuditWorker creates an audit worker over the given store.
func NewAuditWorker(st store.Store, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	}
	return &AuditWorker{store: st, logger: logger}
}

// HandleRecordEvent appends one event to the audit trail. A returned
// error causes the delivery to be requeued, so the write must be
// idempotent from the trail's point of view: duplicate entries are
// acceptable, lost ones are not.
func (w *AuditWorker) HandleRecordEvent(ev *events.RecordEvent) error {
	switch ev.Action {
	case events.ActionCreated, events.ActionUpdated, events.ActionDeleted:
	default:
		// Unknown actions are dropped; requeueing them would loop forever.
		w.logger.Warn("Skipping event with unknown action", "action", ev.Action, log.FieldRecordID, ev.RecordID)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entry := store.AuditEntry{
		Action:     ev.Action,
		RecordID:   ev.RecordID,
		UserID:     ev.UserID,
		OccurredAt: ev.Timestamp,
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	if err := w.store.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Audit entry recorded",
		log.FieldOperation, log.OpAudit,
		"action", ev.Action,
		log.FieldRecordID, ev.RecordID,
		log.FieldUserID, ev.UserID)

	return nil
}

// Run consumes events from the client until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, client *events.Client) error {
	return client.ConsumeRecordEvents(ctx, w.HandleRecordEvent)
}
