// Package token implements the bearer token capability: issue a signed
// token bound to a user identifier, and verify one back into that
// identifier. Tokens are stateless, so a token can outlive its user;
// resolving the identifier against the store is the caller's job.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tally/internal/apperr"
)

// DefaultTTL is the validity window used when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Claims is the JWT payload carried by every issued token.
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies bearer tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. A zero ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token bound to userID with the configured
// validity window.
func (i *Issuer) Issue(userID int64) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the embedded user
// identifier. Malformed, forged and expired tokens all normalize to an
// auth error so callers cannot distinguish them.
func (i *Issuer) Verify(tokenString string) (int64, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return 0, apperr.Auth("invalid or expired token")
	}
	if claims.UserID <= 0 {
		return 0, apperr.Auth("invalid or expired token")
	}
	return claims.UserID, nil
}
