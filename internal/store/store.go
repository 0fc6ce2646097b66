// Package store defines the durable storage contract for users and
// records. Every record operation is owner-scoped at the interface
// boundary: a record that exists but belongs to another user is
// indistinguishable from one that does not exist.
package store

import (
	"context"
	"time"

	"tally/internal/core"
)

// RecordFilter narrows ListRecords. Zero-valued fields match everything.
type RecordFilter struct {
	Kind     core.Kind
	Category string
	Search   string
}

// RecordPatch holds the fields of a partial update. Nil pointers leave
// the stored value untouched.
type RecordPatch struct {
	Amount   *core.Money
	Kind     *core.Kind
	Category *string
	Note     *string
	Date     *core.Date
}

// AuditEntry is one row of the mutation audit trail written by the
// event worker.
type AuditEntry struct {
	Action     string
	RecordID   int64
	UserID     int64
	OccurredAt time.Time
}

// Store is the durable backend. Implementations map duplicate unique
// fields to apperr.Conflict and absent or foreign-owned rows to
// apperr.NotFound.
type Store interface {
	// CreateUser persists a new user and returns it with the assigned
	// identifier and creation timestamp.
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	// UserByLogin resolves a user by username or email.
	UserByLogin(ctx context.Context, login string) (core.User, error)
	// UserByID resolves a user by identifier.
	UserByID(ctx context.Context, id int64) (core.User, error)
	// DeleteUser removes a user and cascades to all owned records.
	DeleteUser(ctx context.Context, id int64) error

	// ListRecords returns the user's records matching the filter,
	// ordered by date descending with identifier ascending as the tie
	// break.
	ListRecords(ctx context.Context, userID int64, f RecordFilter) ([]core.Record, error)
	// CreateRecord persists a new record owned by r.UserID.
	CreateRecord(ctx context.Context, r core.Record) (core.Record, error)
	// RecordByID fetches a single record scoped by owner.
	RecordByID(ctx context.Context, userID, id int64) (core.Record, error)
	// UpdateRecord applies a patch as one conditional statement scoped
	// by owner and returns the post-update record.
	UpdateRecord(ctx context.Context, userID, id int64, p RecordPatch) (core.Record, error)
	// DeleteRecord removes a record scoped by owner and returns the
	// deleted snapshot.
	DeleteRecord(ctx context.Context, userID, id int64) (core.Record, error)

	// AppendAudit records one mutation in the audit trail.
	AppendAudit(ctx context.Context, e AuditEntry) error

	Close() error
}
