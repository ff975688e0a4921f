package session

import (
	"github.com/goliatone/go-router"
)

// TemplateUserKey is the view context key the navigation shell reads the
// resolved identity from.
var TemplateUserKey = "current_user"

// TemplateHelpers returns helper functions for the host's template engine
// so navigation shells can branch on session state.
//
// In templates:
//
//	{% if current_user %}
//	{% if current_user|has_role:"admin" %}
//	{% if is_admin(current_user) %}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": tplIsAuthenticated,
		"has_role":         tplHasRole,
		"is_admin":         tplIsAdmin,

		// Role constants for easy template access
		"roles": map[string]string{
			"guest":  RoleGuest,
			"member": RoleMember,
			"admin":  RoleAdmin,
			"owner":  RoleOwner,
		},
	}
}

// ViewContext builds the session slice of a render context from a state
// snapshot: current_user, is_authenticated and is_admin are what the
// navigation shell needs to draw itself.
func ViewContext(st State, adminRole RoleCode) router.ViewContext {
	vc := router.ViewContext{
		TemplateUserKey:    st.Identity,
		"is_authenticated": st.IsAuthenticated(),
		"is_admin":         false,
		"session_pending":  !st.Initialized || st.Loading,
	}

	if st.Identity != nil {
		vc["is_admin"] = CapabilityAdmin.SatisfiedBy(st.Identity.RoleSet(), adminRole)
		vc["display_name"] = st.Identity.Label()
	}

	return vc
}

func tplIsAuthenticated(user any) bool {
	identity, ok := user.(*IdentityRecord)
	return ok && identity != nil
}

func tplHasRole(user any, role string) bool {
	identity, ok := user.(*IdentityRecord)
	if !ok || identity == nil {
		return false
	}
	return identity.RoleSet().Has(role)
}

func tplIsAdmin(user any) bool {
	identity, ok := user.(*IdentityRecord)
	if !ok || identity == nil {
		return false
	}
	return CapabilityAdmin.SatisfiedBy(identity.RoleSet(), "")
}
