package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/store"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context

	alice core.User
	bob   core.User
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	st, err := New(":memory:")
	s.Require().NoError(err)
	s.store = st
	s.ctx = context.Background()

	s.alice, err = st.CreateUser(s.ctx, core.User{
		Username: "alice", Email: "alice@example.com", PasswordHash: "hash-a", Name: "Alice",
	})
	s.Require().NoError(err)

	s.bob, err = st.CreateUser(s.ctx, core.User{
		Username: "bob", Email: "bob@example.com", PasswordHash: "hash-b", Name: "Bob",
	})
	s.Require().NoError(err)
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StoreSuite) createRecord(userID int64, cents int64, kind core.Kind, category, note, date string) core.Record {
	d, err := core.ParseDate(date)
	s.Require().NoError(err)
	r, err := s.store.CreateRecord(s.ctx, core.Record{
		UserID:   userID,
		Amount:   core.Money{Cents: cents},
		Kind:     kind,
		Category: category,
		Note:     note,
		Date:     d,
	})
	s.Require().NoError(err)
	return r
}

func (s *StoreSuite) TestCreateUserAssignsID() {
	s.NotZero(s.alice.ID)
	s.NotZero(s.bob.ID)
	s.NotEqual(s.alice.ID, s.bob.ID)
	s.False(s.alice.CreatedAt.IsZero())
}

func (s *StoreSuite) TestCreateUserDuplicateUsername() {
	_, err := s.store.CreateUser(s.ctx, core.User{
		Username: "alice", Email: "other@example.com", PasswordHash: "h", Name: "A",
	})
	s.Equal(apperr.KindConflict, apperr.Kind(err))
}

func (s *StoreSuite) TestCreateUserDuplicateEmail() {
	_, err := s.store.CreateUser(s.ctx, core.User{
		Username: "alice2", Email: "alice@example.com", PasswordHash: "h", Name: "A",
	})
	s.Equal(apperr.KindConflict, apperr.Kind(err))
}

func (s *StoreSuite) TestUserByLogin() {
	byName, err := s.store.UserByLogin(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(s.alice.ID, byName.ID)

	byEmail, err := s.store.UserByLogin(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(s.alice.ID, byEmail.ID)

	_, err = s.store.UserByLogin(s.ctx, "nobody")
	s.Equal(apperr.KindNotFound, apperr.Kind(err))
}

func (s *StoreSuite) TestUserByID() {
	u, err := s.store.UserByID(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal("alice", u.Username)

	_, err = s.store.UserByID(s.ctx, 9999)
	s.Equal(apperr.KindNotFound, apperr.Kind(err))
}

func (s *StoreSuite) TestDeleteUserCascades() {
	r := s.createRecord(s.alice.ID, 1000, core.KindExpense, "食品", "午餐", "2024-01-15")

	s.Require().NoError(s.store.DeleteUser(s.ctx, s.alice.ID))

	_, err := s.store.UserByID(s.ctx, s.alice.ID)
	s.Equal(apperr.KindNotFound, apperr.Kind(err))

	// The record went with the user; another user cannot see it either.
	_, err = s.store.RecordByID(s.ctx, s.bob.ID, r.ID)
	s.Equal(apperr.KindNotFound, apperr.Kind(err))

	s.Equal(apperr.KindNotFound, apperr.Kind(s.store.DeleteUser(s.ctx, s.alice.ID)))
}

func (s *StoreSuite) TestCreateAndFetchRecord() {
	created := s.createRecord(s.alice.ID, 300000, core.KindIncome, "工资", "", "2024-01-10")
	s.NotZero(created.ID)
	s.False(created.CreatedAt.IsZero())
	s.False(created.UpdatedAt.IsZero())

	got, err := s.store.RecordByID(s.ctx, s.alice.ID, created.ID)
	s.Require().NoError(err)
	s.Equal(int64(300000), got.Amount.Cents)
	s.Equal(core.KindIncome, got.Kind)
	s.Equal("工资", got.Category)
	s.Equal("2024-01-10", got.Date.String())
}

func (s *StoreSuite) TestListRecordsOrderAndScope() {
	r1 := s.createRecord(s.alice.ID, 100, core.KindExpense, "a", "", "2024-01-10")
	r2 := s.createRecord(s.alice.ID, 200, core.KindExpense, "b", "", "2024-01-15")
	r3 := s.createRecord(s.alice.ID, 300, core.KindExpense, "c", "", "2024-01-15")
	s.createRecord(s.bob.ID, 999, core.KindExpense, "z", "", "2024-01-20")

	recs, err := s.store.ListRecords(s.ctx, s.alice.ID, store.RecordFilter{})
	s.Require().NoError(err)
	s.Require().Len(recs, 3)

	// Newest date first, id ascending inside the same day.
	s.Equal(r2.ID, recs[0].ID)
	s.Equal(r3.ID, recs[1].ID)
	s.Equal(r1.ID, recs[2].ID)
}

func (s *StoreSuite) TestListRecordsFilters() {
	s.createRecord(s.alice.ID, 300000, core.KindIncome, "工资", "", "2024-01-10")
	s.createRecord(s.alice.ID, 10000, core.KindExpense, "食品", "午餐", "2024-01-15")

	byKind, err := s.store.ListRecords(s.ctx, s.alice.ID, store.RecordFilter{Kind: core.KindIncome})
	s.Require().NoError(err)
	s.Len(byKind, 1)
	s.Equal("工资", byKind[0].Category)

	byCategory, err := s.store.ListRecords(s.ctx, s.alice.ID, store.RecordFilter{Category: "食品"})
	s.Require().NoError(err)
	s.Len(byCategory, 1)

	bySearch, err := s.store.ListRecords(s.ctx, s.alice.ID, store.RecordFilter{Search: "午"})
	s.Require().NoError(err)
	s.Len(bySearch, 1)
	s.Equal("午餐", bySearch[0].Note)
}

func (s *StoreSuite) TestListRecordsEmptyIsNotNil() {
	recs, err := s.store.ListRecords(s.ctx, s.alice.ID, store.RecordFilter{})
	s.Require().NoError(err)
	s.NotNil(recs)
	s.Empty(recs)
}

func (s *StoreSuite) TestUpdateRecordPartial() {
	created := s.createRecord(s.alice.ID, 10000, core.KindExpense, "食品", "午餐", "2024-01-15")

	amount := core.Money{Cents: 12000}
	updated, err := s.store.UpdateRecord(s.ctx, s.alice.ID, created.ID, store.RecordPatch{Amount: &amount})
	s.Require().NoError(err)

	// Only the amount changed.
	s.Equal(int64(12000), updated.Amount.Cents)
	s.Equal("食品", updated.Category)
	s.Equal("午餐", updated.Note)
	s.Equal("2024-01-15", updated.Date.String())
}

func (s *StoreSuite) TestUpdateRecordRepeatedPatch() {
	created := s.createRecord(s.alice.ID, 10000, core.KindExpense, "食品", "午餐", "2024-01-15")

	amount := core.Money{Cents: 12000}
	note := "改了"
	patch := store.RecordPatch{Amount: &amount, Note: &note}

	first, err := s.store.UpdateRecord(s.ctx, s.alice.ID, created.ID, patch)
	s.Require().NoError(err)
	second, err := s.store.UpdateRecord(s.ctx, s.alice.ID, created.ID, patch)
	s.Require().NoError(err)

	// Applying the same patch again leaves the stored state unchanged,
	// apart from the touched timestamp.
	s.False(second.UpdatedAt.Before(first.UpdatedAt))
	second.UpdatedAt = first.UpdatedAt
	s.Equal(first, second)

	got, err := s.store.RecordByID(s.ctx, s.alice.ID, created.ID)
	s.Require().NoError(err)
	s.Equal(int64(12000), got.Amount.Cents)
	s.Equal("改了", got.Note)
}

func (s *StoreSuite) TestUpdateRecordEmptyPatchTouchesTimestamp() {
	created := s.createRecord(s.alice.ID, 10000, core.KindExpense, "食品", "", "2024-01-15")

	updated, err := s.store.UpdateRecord(s.ctx, s.alice.ID, created.ID, store.RecordPatch{})
	s.Require().NoError(err)
	s.Equal(created.Amount, updated.Amount)
	s.False(updated.UpdatedAt.Before(created.UpdatedAt))
}

func (s *StoreSuite) TestUpdateRecordCrossUser() {
	created := s.createRecord(s.alice.ID, 10000, core.KindExpense, "食品", "", "2024-01-15")

	amount := core.Money{Cents: 1}
	_, err := s.store.UpdateRecord(s.ctx, s.bob.ID, created.ID, store.RecordPatch{Amount: &amount})
	s.Equal(apperr.KindNotFound, apperr.Kind(err))

	// The record is untouched.
	got, err := s.store.RecordByID(s.ctx, s.alice.ID, created.ID)
	s.Require().NoError(err)
	s.Equal(int64(10000), got.Amount.Cents)
}

func (s *StoreSuite) TestDeleteRecordReturnsSnapshot() {
	created := s.createRecord(s.alice.ID, 10000, core.KindExpense, "食品", "午餐", "2024-01-15")

	deleted, err := s.store.DeleteRecord(s.ctx, s.alice.ID, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, deleted.ID)
	s.Equal("午餐", deleted.Note)

	_, err = s.store.RecordByID(s.ctx, s.alice.ID, created.ID)
	s.Equal(apperr.KindNotFound, apperr.Kind(err))

	// Deleting again reports not found.
	_, err = s.store.DeleteRecord(s.ctx, s.alice.ID, created.ID)
	s.Equal(apperr.KindNotFound, apperr.Kind(err))
}

func (s *StoreSuite) TestDeleteRecordCrossUser() {
	created := s.createRecord(s.alice.ID, 10000, core.KindExpense, "食品", "", "2024-01-15")

	_, err := s.store.DeleteRecord(s.ctx, s.bob.ID, created.ID)
	s.Equal(apperr.KindNotFound, apperr.Kind(err))

	_, err = s.store.RecordByID(s.ctx, s.alice.ID, created.ID)
	s.NoError(err)
}

func (s *StoreSuite) TestAppendAudit() {
	err := s.store.AppendAudit(s.ctx, store.AuditEntry{
		Action:     "created",
		RecordID:   1,
		UserID:     s.alice.ID,
		OccurredAt: time.Now(),
	})
	s.NoError(err)

	// Zero timestamps get filled in.
	err = s.store.AppendAudit(s.ctx, store.AuditEntry{Action: "deleted", RecordID: 2, UserID: s.alice.ID})
	s.NoError(err)
}
