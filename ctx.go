package session

import (
	"context"

	"github.com/goliatone/go-router"
)

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the resolved identity in the given context.
func WithIdentity(ctx context.Context, identity *IdentityRecord) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity placed by a guard.
func IdentityFromContext(ctx context.Context) (*IdentityRecord, bool) {
	raw, ok := ctx.Value(identityCtxKey).(*IdentityRecord)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// CurrentIdentity extracts the identity from a router context.
func CurrentIdentity(c router.Context) (*IdentityRecord, bool) {
	return IdentityFromContext(c.Context())
}

// IsAdminContext reports whether the context identity satisfies the admin
// capability. adminRole overrides the marker code; empty means RoleAdmin.
func IsAdminContext(ctx context.Context, adminRole ...RoleCode) bool {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return false
	}

	marker := RoleCode("")
	if len(adminRole) > 0 {
		marker = adminRole[0]
	}
	return CapabilityAdmin.SatisfiedBy(identity.RoleSet(), marker)
}
