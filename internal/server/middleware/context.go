// Package middleware holds the HTTP middleware shared by all routes:
// bearer-token auth, identity propagation, and request logging.
package middleware

import (
	"context"

	"saysense/backend/internal/security"
)

type ctxKey int

const identityKey ctxKey = iota

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id security.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the authenticated identity from the context.
// ok is false on routes that did not pass through RequireAuth.
func IdentityFrom(ctx context.Context) (security.Identity, bool) {
	id, ok := ctx.Value(identityKey).(security.Identity)
	return id, ok
}
