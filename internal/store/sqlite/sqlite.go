// Package sqlite implements the store contract on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/store"
)

// Store is a SQLite-backed store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens (and if needed creates) the database at path and applies
// pending migrations. Use ":memory:" for an ephemeral database.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps in-memory databases coherent and
	// sidesteps SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser implements store.Store.
func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Name, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, apperr.Conflict("username or email already in use")
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	return u, nil
}

func (s *Store) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// UserByLogin implements store.Store. The login matches either the
// username or the email.
func (s *Store) UserByLogin(ctx context.Context, login string) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, name, created_at FROM users WHERE username = ? OR email = ?`,
		login, login,
	)
	return s.scanUser(row)
}

// UserByID implements store.Store.
func (s *Store) UserByID(ctx context.Context, id int64) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, name, created_at FROM users WHERE id = ?`,
		id,
	)
	return s.scanUser(row)
}

// DeleteUser implements store.Store. Owned records go with the user
// via the foreign key cascade.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

const recordColumns = `id, user_id, amount_cents, kind, category, note, date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var (
		r       core.Record
		dateStr string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Amount.Cents, &r.Kind, &r.Category, &r.Note, &dateStr, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return core.Record{}, err
	}
	r.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.Record{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	return r, nil
}

// ListRecords implements store.Store.
func (s *Store) ListRecords(ctx context.Context, userID int64, f store.RecordFilter) ([]core.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE user_id = ?`
	args := []any{userID}

	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Search != "" {
		query += ` AND note LIKE '%' || ? || '%'`
		args = append(args, f.Search)
	}
	query += ` ORDER BY date DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []core.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CreateRecord implements store.Store.
func (s *Store) CreateRecord(ctx context.Context, r core.Record) (core.Record, error) {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (user_id, amount_cents, kind, category, note, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Amount.Cents, string(r.Kind), r.Category, r.Note, r.Date.String(), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return core.Record{}, fmt.Errorf("record insert id: %w", err)
	}
	return r, nil
}

// RecordByID implements store.Store.
func (s *Store) RecordByID(ctx context.Context, userID, id int64) (core.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, apperr.NotFound("record not found")
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

// UpdateRecord implements store.Store. The ownership check and the
// mutation are one conditional UPDATE, so a record deleted between
// calls cannot be resurrected.
func (s *Store) UpdateRecord(ctx context.Context, userID, id int64, p store.RecordPatch) (core.Record, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if p.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, p.Amount.Cents)
	}
	if p.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*p.Kind))
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *p.Note)
	}
	if p.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, p.Date.String())
	}

	args = append(args, id, userID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Record{}, fmt.Errorf("update record rows affected: %w", err)
	}
	if n == 0 {
		return core.Record{}, apperr.NotFound("record not found")
	}

	return s.RecordByID(ctx, userID, id)
}

// DeleteRecord implements store.Store. The snapshot is read first so
// the caller can show what was removed; the DELETE itself is still
// owner-conditional.
func (s *Store) DeleteRecord(ctx context.Context, userID, id int64) (core.Record, error) {
	snapshot, err := s.RecordByID(ctx, userID, id)
	if err != nil {
		return core.Record{}, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record rows affected: %w", err)
	}
	if n == 0 {
		return core.Record{}, apperr.NotFound("record not found")
	}
	return snapshot, nil
}

// AppendAudit implements store.Store.
func (s *Store) AppendAudit(ctx context.Context, e store.AuditEntry) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (action, record_id, user_id, occurred_at) VALUES (?, ?, ?, ?)`,
		e.Action, e.RecordID, e.UserID, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
