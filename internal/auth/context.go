// Package auth carries the caller's identity through a request and hashes
// credentials.
package auth

import "context"

type contextKey string

const identityKey = contextKey("identity")

// Identity is an authenticated caller.
type Identity struct {
	UserID int
	Email  string
}

// WithIdentity stores the caller's identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller's identity; ok is false for
// anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, false
	}
	return id, true
}

// UserID returns the caller's user id, or 0 when anonymous.
func UserID(ctx context.Context) int {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}
