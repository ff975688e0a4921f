package session

import (
	"fmt"

	"github.com/google/uuid"
)

// IdentityRecord is the authenticated user's profile as the portal API
// returns it. Roles may arrive as a list of role objects, as the legacy
// single role string, or both; RoleSet folds them into one canonical set.
type IdentityRecord struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Roles       []Role `json:"roles,omitempty"`
	// LegacyRole is the pre-RBAC single role field still emitted by older
	// portal deployments.
	LegacyRole RoleCode `json:"role,omitempty"`
}

// RoleSet returns the canonical role collection for capability checks.
func (r *IdentityRecord) RoleSet() RoleSet {
	if r == nil {
		return nil
	}
	return NormalizeRoles(r.Roles, r.LegacyRole)
}

// UUID parses the record ID. Portal identities are UUIDs; external
// providers may use opaque strings, in which case this errors.
func (r *IdentityRecord) UUID() (uuid.UUID, error) {
	if r == nil {
		return uuid.Nil, ErrIdentityNotFound
	}
	return uuid.Parse(r.ID)
}

// Label is the identity's display handle for logs and view contexts.
func (r *IdentityRecord) Label() string {
	if r == nil {
		return ""
	}
	if r.DisplayName != "" {
		return r.DisplayName
	}
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

func (r *IdentityRecord) String() string {
	if r == nil {
		return "IdentityRecord<nil>"
	}
	return fmt.Sprintf("IdentityRecord<%s %s roles=%v>", r.ID, r.Label(), r.RoleSet())
}
