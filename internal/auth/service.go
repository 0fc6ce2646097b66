// Package auth implements registration, login and bearer-token
// authentication on top of the store and token capabilities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/store"
	"tally/internal/token"
)

// bcryptCost matches the work factor used for all stored hashes.
const bcryptCost = 12

type contextKey string

// userIDKey carries the authenticated user id through request context.
const userIDKey contextKey = "auth_user_id"

// RegisterInput is the payload accepted by Register.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Service implements the auth operations.
type Service struct {
	store  store.Store
	tokens *token.Issuer
	logger *log.Logger
}

// NewService creates an auth service.
func NewService(st store.Store, tokens *token.Issuer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentAuth)
	}
	return &Service{store: st, tokens: tokens, logger: logger}
}

// Register creates a new user and returns the safe projection. It does
// not issue a token; registration does not imply a session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (core.SafeUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if err := core.ValidateRegistration(in.Username, in.Email, in.Password, in.Name); err != nil {
		return core.SafeUser{}, apperr.Validation(err.Error(), err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return core.SafeUser{}, apperr.Server(fmt.Errorf("hash password: %w", err))
	}

	user, err := s.store.CreateUser(ctx, core.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
	})
	if err != nil {
		if apperr.Kind(err) == apperr.KindConflict {
			return core.SafeUser{}, err
		}
		return core.SafeUser{}, apperr.Server(fmt.Errorf("create user: %w", err))
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID, "username", user.Username)
	return user.Safe(), nil
}

// Login matches the identifier against username or email, verifies the
// password and issues a bearer token. Both an unknown identifier and a
// wrong password surface as the same auth error so callers cannot
// probe which accounts exist.
func (s *Service) Login(ctx context.Context, login, password string) (core.SafeUser, string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return core.SafeUser{}, "", apperr.Validationf("login and password are required")
	}

	user, err := s.store.UserByLogin(ctx, login)
	if err != nil {
		if apperr.Kind(err) == apperr.KindNotFound {
			s.logger.WarnContext(ctx, "Login failed", "reason", "unknown identifier")
			return core.SafeUser{}, "", apperr.Auth("invalid login or password")
		}
		return core.SafeUser{}, "", apperr.Server(fmt.Errorf("lookup user: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Login failed", "reason", "bad credentials", "user_id", user.ID)
		return core.SafeUser{}, "", apperr.Auth("invalid login or password")
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return core.SafeUser{}, "", apperr.Server(fmt.Errorf("issue token: %w", err))
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return user.Safe(), tok, nil
}

// CurrentUser fetches the safe projection for a verified user id. A
// structurally valid token whose user has since been deleted yields a
// not-found error rather than an auth error.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (core.SafeUser, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if apperr.Kind(err) == apperr.KindNotFound {
			return core.SafeUser{}, err
		}
		return core.SafeUser{}, apperr.Server(fmt.Errorf("lookup user: %w", err))
	}
	return user.Safe(), nil
}

// Authenticate extracts and verifies the bearer token from a request,
// returning the embedded user id. Every record operation goes through
// this check; there is no anonymous record access.
func (s *Service) Authenticate(r *http.Request) (int64, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return 0, apperr.Auth("missing bearer token")
	}
	tok, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tok == "" {
		return 0, apperr.Auth("missing bearer token")
	}
	return s.tokens.Verify(tok)
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID extracts the authenticated user id from a context.
func UserID(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(userIDKey).(int64)
	if !ok || id <= 0 {
		return 0, errors.New("no authenticated user in context")
	}
	return id, nil
}
