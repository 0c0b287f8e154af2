// Package session issues, resolves and revokes login sessions.
//
// The client holds an HS256-signed token whose jti names a server-side
// session record. The signature is checked before the store is consulted, and
// expired records are deleted when they are next presented.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

// TTL is how long a session stays valid after login.
const TTL = 30 * 24 * time.Hour

// Store persists session records keyed by session id.
type Store interface {
	Create(ctx context.Context, s *models.Session) error
	// Lookup returns nil, nil for an unknown id.
	Lookup(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// UserFinder loads the account a session belongs to.
type UserFinder interface {
	FindByID(ctx context.Context, id int) (*models.User, error)
}

type Manager struct {
	store  Store
	users  UserFinder
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Manager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func NewManager(store Store, users UserFinder, secret string, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		users:  users,
		secret: []byte(secret),
		ttl:    TTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a session for userID and returns the signed token.
func (m *Manager) Create(ctx context.Context, userID int) (string, time.Time, error) {
	id, err := newSessionID()
	if err != nil {
		return "", time.Time{}, err
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	rec := &models.Session{Token: id, UserID: userID, ExpiresAt: expiresAt}
	if err := m.store.Create(ctx, rec); err != nil {
		return "", time.Time{}, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Resolve maps a token onto the caller's identity. ok is false for anything
// that is not a live session: an empty, garbled or forged token, an expired or
// revoked session, or a deleted user. err is only set for store failures.
func (m *Manager) Resolve(ctx context.Context, token string) (auth.Identity, bool, error) {
	if token == "" {
		return auth.Identity{}, false, nil
	}

	claims, err := m.parse(token, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.ID != "" {
			return auth.Identity{}, false, m.store.Delete(ctx, claims.ID)
		}
		return auth.Identity{}, false, nil
	}

	rec, err := m.store.Lookup(ctx, claims.ID)
	if err != nil {
		return auth.Identity{}, false, err
	}
	if rec == nil || strconv.Itoa(rec.UserID) != claims.Subject {
		return auth.Identity{}, false, nil
	}
	if rec.Expired(m.now()) {
		return auth.Identity{}, false, m.store.Delete(ctx, claims.ID)
	}

	user, err := m.users.FindByID(ctx, rec.UserID)
	if models.IsKind(err, models.KindNotFound) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return auth.Identity{UserID: user.ID, Email: user.Email}, true, nil
}

// Revoke deletes the session behind token. Tokens that do not verify are
// ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil || claims.ID == "" {
		return nil
	}
	return m.store.Delete(ctx, claims.ID)
}

func (m *Manager) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	return claims, err
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
