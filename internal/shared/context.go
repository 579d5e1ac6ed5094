package shared

import "context"

// Role is the coarse access level resolved by the upstream auth layer.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
)

// Identity describes the authenticated caller of a request.
type Identity struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type contextKey string

const identityKey contextKey = "identity"

// ContextWithIdentity stores the caller identity on the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the caller identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
