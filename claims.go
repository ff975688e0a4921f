package session

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the claim set the portal's identity provider mints into
// session tokens. Both role representations travel with the token so a
// local decode yields the same capability surface as a network probe.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID         string   `json:"uid,omitempty"`
	Username    string   `json:"username,omitempty"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	UserRole    RoleCode `json:"role,omitempty"`
	RoleCodes   []string `json:"roles,omitempty"`
}

// UserID prefers the explicit uid claim and falls back to the subject.
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

func (c *SessionClaims) roleSet() RoleSet {
	roles := make([]Role, 0, len(c.RoleCodes))
	for _, code := range c.RoleCodes {
		roles = append(roles, Role{Code: code})
	}
	return NormalizeRoles(roles, string(c.UserRole))
}

// Identity maps the claims onto the record shape the store holds.
func (c *SessionClaims) Identity() (*IdentityRecord, error) {
	id := c.UserID()
	if id == "" {
		return nil, goerrors.New("token claims carry no subject", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	roles := make([]Role, 0, len(c.RoleCodes))
	for _, code := range c.RoleCodes {
		roles = append(roles, Role{Code: code})
	}

	return &IdentityRecord{
		ID:          id,
		Username:    c.Username,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		AvatarURL:   c.AvatarURL,
		Roles:       roles,
		LegacyRole:  c.UserRole,
	}, nil
}
