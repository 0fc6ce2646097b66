package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindValid(t *testing.T) {
	assert.True(t, KindIncome.Valid())
	assert.True(t, KindExpense.Valid())
	assert.False(t, Kind("transfer").Valid())
	assert.False(t, Kind("").Valid())
}

func TestRecordValidate(t *testing.T) {
	valid := Record{
		Amount:   Money{Cents: 1500},
		Kind:     KindExpense,
		Category: "食品",
		Date:     NewDate(2024, time.January, 15),
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Record)
		want   error
	}{
		{name: "zero amount", mutate: func(r *Record) { r.Amount = Money{} }, want: ErrInvalidAmount},
		{name: "negative amount", mutate: func(r *Record) { r.Amount.Cents = -1 }, want: ErrInvalidAmount},
		{name: "bad kind", mutate: func(r *Record) { r.Kind = "transfer" }, want: ErrInvalidKind},
		{name: "blank category", mutate: func(r *Record) { r.Category = "   " }, want: ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), tt.want)
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	assert.NoError(t, ValidateRegistration("alice", "alice@example.com", "secret1", "Alice"))

	tests := []struct {
		name                            string
		username, email, password, user string
		want                            error
	}{
		{name: "short username", username: "ab", email: "a@b.co", password: "secret1", user: "A", want: ErrEmptyUsername},
		{name: "long username", username: "abcdefghijklmnopqrstuvwxyz12345", email: "a@b.co", password: "secret1", user: "A", want: ErrEmptyUsername},
		{name: "bad email", username: "alice", email: "not-an-email", password: "secret1", user: "A", want: ErrInvalidEmail},
		{name: "email without tld", username: "alice", email: "a@b", password: "secret1", user: "A", want: ErrInvalidEmail},
		{name: "short password", username: "alice", email: "a@b.co", password: "12345", user: "A", want: ErrWeakPassword},
		{name: "blank name", username: "alice", email: "a@b.co", password: "secret1", user: "  ", want: ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateRegistration(tt.username, tt.email, tt.password, tt.user), tt.want)
		})
	}
}

func TestSafeUserHasNoPassword(t *testing.T) {
	u := User{
		ID:           7,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$secret",
		Name:         "Alice",
	}

	out, err := json.Marshal(u.Safe())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "passwordHash")
	assert.Equal(t, "alice", fields["username"])
}

func TestRecordJSONKeys(t *testing.T) {
	r := Record{
		ID:       1,
		UserID:   2,
		Amount:   Money{Cents: 300000},
		Kind:     KindIncome,
		Category: "工资",
		Date:     NewDate(2024, time.January, 10),
	}

	out, err := json.Marshal(r)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, "income", fields["type"])
	assert.Equal(t, float64(3000), fields["amount"])
	assert.Equal(t, "2024-01-10", fields["date"])
}
