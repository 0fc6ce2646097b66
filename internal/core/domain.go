package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	// Kind distinguishes the two record types.
	Kind string

	// Record is one income or expense entry owned by exactly one user.
	Record struct {
		ID        int64     `json:"id"`
		UserID    int64     `json:"user_id"`
		Amount    Money     `json:"amount"`
		Kind      Kind      `json:"type"`
		Category  string    `json:"category"`
		Note      string    `json:"note"`
		Date      Date      `json:"date"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// User is the stored account entity. The password hash never
	// leaves the service layer; responses use SafeUser instead.
	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		Name         string
		CreatedAt    time.Time
	}

	// SafeUser is the client-facing projection of a User. It has no
	// password field at all, so the hash cannot leak through a
	// forgotten code path.
	SafeUser struct {
		ID        int64     `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrEmptyUsername   = errors.New("username must be 3-30 characters")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrWeakPassword    = errors.New("password must be at least 6 characters")
	ErrEmptyName       = errors.New("name is required")
	ErrMissingRequired = errors.New("amount, type and category are required")

	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Safe returns the password-free projection of the user.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

// Validate checks a record before it is persisted.
func (r Record) Validate() error {
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// ValidateRegistration checks the fields supplied at registration.
// The password itself is validated here; only its hash is ever stored.
func ValidateRegistration(username, email, password, name string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 30 {
		return ErrEmptyUsername
	}
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	if len(password) < 6 {
		return ErrWeakPassword
	}
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}
