// Package records implements the owner-scoped record lifecycle: list,
// create, update and delete, each bound to the authenticated caller.
package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/events"
	"tally/internal/log"
	"tally/internal/store"
)

// CreateInput is the payload accepted by Create. Amount, Kind and
// Category are required; Note defaults to empty and Date to today.
type CreateInput struct {
	Amount   *core.Money `json:"amount"`
	Kind     core.Kind   `json:"type"`
	Category string      `json:"category"`
	Note     *string     `json:"note"`
	Date     core.Date   `json:"date"`
}

// UpdateInput is the payload accepted by Update. Nil fields are left
// untouched.
type UpdateInput struct {
	Amount   *core.Money `json:"amount"`
	Kind     *core.Kind  `json:"type"`
	Category *string     `json:"category"`
	Note     *string     `json:"note"`
	Date     *core.Date  `json:"date"`
}

// Service orchestrates record operations across the store and the
// event publisher.
type Service struct {
	store     store.Store
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
}

// NewService creates a record service. A nil publisher disables
// events.
func NewService(st store.Store, publisher events.Publisher, logger *log.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentRecords)
	}
	return &Service{store: st, publisher: publisher, logger: logger, now: time.Now}
}

// List returns the caller's records matching the optional filters,
// newest date first. An empty result is not an error.
func (s *Service) List(ctx context.Context, userID int64, f store.RecordFilter) ([]core.Record, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, apperr.Validationf("unknown type %q", f.Kind)
	}
	recs, err := s.store.ListRecords(ctx, userID, f)
	if err != nil {
		return nil, apperr.Server(fmt.Errorf("list records: %w", err))
	}
	return recs, nil
}

// Create validates the input and persists a new record owned by
// userID.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (core.Record, error) {
	if in.Amount == nil || in.Kind == "" || in.Category == "" {
		return core.Record{}, apperr.Validation("amount, type and category are required", core.ErrMissingRequired)
	}

	r := core.Record{
		UserID:   userID,
		Amount:   *in.Amount,
		Kind:     in.Kind,
		Category: in.Category,
		Date:     in.Date,
	}
	if in.Note != nil {
		r.Note = *in.Note
	}
	if r.Date.IsZero() {
		r.Date = core.DateOf(s.now())
	}
	if err := r.Validate(); err != nil {
		return core.Record{}, apperr.Validation(err.Error(), err)
	}

	created, err := s.store.CreateRecord(ctx, r)
	if err != nil {
		return core.Record{}, apperr.Server(fmt.Errorf("create record: %w", err))
	}

	s.logger.InfoContext(ctx, "Record created",
		log.FieldUserID, userID,
		log.FieldRecordID, created.ID,
		log.FieldKind, string(created.Kind),
		log.FieldAmount, created.Amount.Cents)
	s.publish(ctx, events.ActionCreated, created)
	return created, nil
}

// Update applies a partial update to a record owned by userID. A
// record owned by someone else is reported as not found.
func (s *Service) Update(ctx context.Context, userID, recordID int64, in UpdateInput) (core.Record, error) {
	if in.Amount != nil {
		if err := in.Amount.Validate(); err != nil {
			return core.Record{}, apperr.Validation(err.Error(), err)
		}
	}
	if in.Kind != nil && !in.Kind.Valid() {
		return core.Record{}, apperr.Validation(core.ErrInvalidKind.Error(), core.ErrInvalidKind)
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) == "" {
		return core.Record{}, apperr.Validation(core.ErrEmptyCategory.Error(), core.ErrEmptyCategory)
	}

	updated, err := s.store.UpdateRecord(ctx, userID, recordID, store.RecordPatch{
		Amount:   in.Amount,
		Kind:     in.Kind,
		Category: in.Category,
		Note:     in.Note,
		Date:     in.Date,
	})
	if err != nil {
		if apperr.Kind(err) == apperr.KindNotFound {
			return core.Record{}, err
		}
		return core.Record{}, apperr.Server(fmt.Errorf("update record: %w", err))
	}

	s.logger.InfoContext(ctx, "Record updated",
		log.FieldUserID, userID,
		log.FieldRecordID, recordID)
	s.publish(ctx, events.ActionUpdated, updated)
	return updated, nil
}

// Delete removes a record owned by userID and returns the deleted
// snapshot.
func (s *Service) Delete(ctx context.Context, userID, recordID int64) (core.Record, error) {
	deleted, err := s.store.DeleteRecord(ctx, userID, recordID)
	if err != nil {
		if apperr.Kind(err) == apperr.KindNotFound {
			return core.Record{}, err
		}
		return core.Record{}, apperr.Server(fmt.Errorf("delete record: %w", err))
	}

	s.logger.InfoContext(ctx, "Record deleted",
		log.FieldUserID, userID,
		log.FieldRecordID, recordID)
	s.publish(ctx, events.ActionDeleted, deleted)
	return deleted, nil
}

// publish emits a record event best-effort. The record is already
// durable, so a broker failure must not fail the request.
func (s *Service) publish(ctx context.Context, action string, r core.Record) {
	if err := s.publisher.PublishRecordEvent(ctx, events.NewRecordEvent(action, r.ID, r.UserID)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record event",
			log.FieldError, err,
			"action", action,
			log.FieldRecordID, r.ID)
	}
}
