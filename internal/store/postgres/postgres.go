// Package postgres implements the store contract on a PostgreSQL
// database via a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/store"
)

const uniqueViolationCode = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
		kind TEXT NOT NULL CHECK (kind IN ('income', 'expense')),
		category TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_user_date ON records (user_id, date DESC, id ASC)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		action TEXT NOT NULL,
		record_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
}

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New connects to the database at url and ensures the schema exists.
func New(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CreateUser implements store.Store.
func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.CreatedAt = time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, name, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.Name, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, apperr.Conflict("username or email already in use")
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// UserByLogin implements store.Store.
func (s *Store) UserByLogin(ctx context.Context, login string) (core.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, name, created_at FROM users WHERE username = $1 OR email = $1`,
		login,
	)
	return scanUser(row)
}

// UserByID implements store.Store.
func (s *Store) UserByID(ctx context.Context, id int64) (core.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, name, created_at FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// DeleteUser implements store.Store.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

const recordColumns = `id, user_id, amount_cents, kind, category, note, date, created_at, updated_at`

func scanRecord(row pgx.Row) (core.Record, error) {
	var (
		r    core.Record
		date time.Time
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Amount.Cents, &r.Kind, &r.Category, &r.Note, &date, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return core.Record{}, err
	}
	r.Date = core.DateOf(date)
	return r, nil
}

// ListRecords implements store.Store.
func (s *Store) ListRecords(ctx context.Context, userID int64, f store.RecordFilter) ([]core.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE user_id = $1`
	args := []any{userID}

	if f.Kind != "" {
		args = append(args, string(f.Kind))
		query += fmt.Sprintf(` AND kind = $%d`, len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(` AND note ILIKE $%d`, len(args))
	}
	query += ` ORDER BY date DESC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
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
	err := s.pool.QueryRow(ctx,
		`INSERT INTO records (user_id, amount_cents, kind, category, note, date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		r.UserID, r.Amount.Cents, string(r.Kind), r.Category, r.Note, r.Date.Time, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return r, nil
}

// RecordByID implements store.Store.
func (s *Store) RecordByID(ctx context.Context, userID, id int64) (core.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Record{}, apperr.NotFound("record not found")
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

// UpdateRecord implements store.Store. The patch is applied in one
// owner-conditional UPDATE that returns the post-update row.
func (s *Store) UpdateRecord(ctx context.Context, userID, id int64, p store.RecordPatch) (core.Record, error) {
	sets := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add("updated_at", time.Now().UTC())
	if p.Amount != nil {
		add("amount_cents", p.Amount.Cents)
	}
	if p.Kind != nil {
		add("kind", string(*p.Kind))
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Note != nil {
		add("note", *p.Note)
	}
	if p.Date != nil {
		add("date", p.Date.Time)
	}

	args = append(args, id, userID)
	query := fmt.Sprintf(
		`UPDATE records SET %s WHERE id = $%d AND user_id = $%d RETURNING `+recordColumns,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	r, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Record{}, apperr.NotFound("record not found")
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}
	return r, nil
}

// DeleteRecord implements store.Store. DELETE ... RETURNING yields the
// snapshot atomically.
func (s *Store) DeleteRecord(ctx context.Context, userID, id int64) (core.Record, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM records WHERE id = $1 AND user_id = $2 RETURNING `+recordColumns,
		id, userID,
	)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Record{}, apperr.NotFound("record not found")
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record: %w", err)
	}
	return r, nil
}

// AppendAudit implements store.Store.
func (s *Store) AppendAudit(ctx context.Context, e store.AuditEntry) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log (action, record_id, user_id, occurred_at) VALUES ($1, $2, $3, $4)`,
		e.Action, e.RecordID, e.UserID, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
