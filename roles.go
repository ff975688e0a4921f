package session

import "strings"

// RoleCode is a role identifier as the portal API emits it.
type RoleCode = string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest RoleCode = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember RoleCode = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin RoleCode = "admin"
	// RoleOwner is the top role (i.e. view, edit, create, delete)
	RoleOwner RoleCode = "owner"
)

// Role is a role record as returned by the portal API.
type Role struct {
	Code RoleCode `json:"code"`
	Name string   `json:"name,omitempty"`
}

// RoleSet is the canonical, deduplicated role collection every capability
// check runs against. Build one with NormalizeRoles; never branch on the
// wire shape at call sites.
type RoleSet []RoleCode

// NormalizeRoles folds both wire representations, the current list of role
// objects and the legacy single role string, into one canonical set. Codes
// are lowercased; empties and duplicates are dropped.
func NormalizeRoles(roles []Role, legacy string) RoleSet {
	seen := map[RoleCode]struct{}{}
	out := make(RoleSet, 0, len(roles)+1)

	add := func(code string) {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	for _, r := range roles {
		add(r.Code)
	}
	add(legacy)

	return out
}

// Has reports whether the set contains the given code.
func (s RoleSet) Has(code RoleCode) bool {
	code = strings.ToLower(code)
	for _, c := range s {
		if c == code {
			return true
		}
	}
	return false
}

// IsAtLeast reports whether any role in the set meets the minimum level.
// Codes outside the known hierarchy only satisfy an exact match.
func (s RoleSet) IsAtLeast(minRole RoleCode) bool {
	minLevel, known := roleHierarchy[strings.ToLower(minRole)]
	for _, c := range s {
		if c == strings.ToLower(minRole) {
			return true
		}
		if !known {
			continue
		}
		if level, ok := roleHierarchy[c]; ok && level >= minLevel {
			return true
		}
	}
	return false
}

var roleHierarchy = map[RoleCode]int{
	RoleGuest:  0,
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// Capability is a named permission requirement a guard enforces before
// letting a request through.
type Capability string

const (
	// CapabilityAuthenticated requires a resolved identity, any role.
	CapabilityAuthenticated Capability = "authenticated"
	// CapabilityAdmin additionally requires the administrator marker.
	CapabilityAdmin Capability = "admin"
)

// SatisfiedBy reports whether the role set meets the capability. adminRole
// overrides the marker code; empty means RoleAdmin. Roles above the marker
// in the hierarchy satisfy it too.
func (c Capability) SatisfiedBy(set RoleSet, adminRole RoleCode) bool {
	switch c {
	case CapabilityAdmin:
		if adminRole == "" {
			adminRole = RoleAdmin
		}
		return set.IsAtLeast(adminRole)
	default:
		return true
	}
}
