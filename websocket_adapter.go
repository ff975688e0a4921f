package session

import (
	"context"

	"github.com/goliatone/go-router"
)

// WSTokenValidator implements go-router's WSTokenValidator interface on top
// of a session TokenValidator so WebSocket upgrades share the portal's
// token fast path.
type WSTokenValidator struct {
	validator TokenValidator
}

// NewWSTokenValidator creates a new WebSocket token validator
func NewWSTokenValidator(validator TokenValidator) *WSTokenValidator {
	return &WSTokenValidator{
		validator: validator,
	}
}

// Validate validates a token string and returns WebSocket-compatible auth claims
func (w *WSTokenValidator) Validate(tokenString string) (router.WSAuthClaims, error) {
	claims, err := w.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &WSAuthClaimsAdapter{claims: claims}, nil
}

// WSAuthClaimsAdapter adapts SessionClaims to go-router's WSAuthClaims interface
type WSAuthClaimsAdapter struct {
	claims *SessionClaims
}

// Subject returns the subject claim
func (w *WSAuthClaimsAdapter) Subject() string {
	return w.claims.Subject
}

// UserID returns the user ID
func (w *WSAuthClaimsAdapter) UserID() string {
	return w.claims.UserID()
}

// Role returns the user's primary role
func (w *WSAuthClaimsAdapter) Role() string {
	set := w.claims.roleSet()
	if len(set) == 0 {
		return string(RoleGuest)
	}
	return string(set[0])
}

// CanRead checks if the user can read a specific resource
func (w *WSAuthClaimsAdapter) CanRead(resource string) bool {
	return w.IsAtLeast(string(RoleGuest))
}

// CanEdit checks if the user can edit a specific resource
func (w *WSAuthClaimsAdapter) CanEdit(resource string) bool {
	return w.IsAtLeast(string(RoleMember))
}

// CanCreate checks if the user can create a specific resource
func (w *WSAuthClaimsAdapter) CanCreate(resource string) bool {
	return w.IsAtLeast(string(RoleMember))
}

// CanDelete checks if the user can delete a specific resource
func (w *WSAuthClaimsAdapter) CanDelete(resource string) bool {
	return w.IsAtLeast(string(RoleAdmin))
}

// HasRole checks if the user has a specific role
func (w *WSAuthClaimsAdapter) HasRole(role string) bool {
	return w.claims.roleSet().Has(RoleCode(role))
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (w *WSAuthClaimsAdapter) IsAtLeast(minRole string) bool {
	return w.claims.roleSet().IsAtLeast(RoleCode(minRole))
}

// NewWSAuthMiddleware builds a configured WebSocket authentication
// middleware wired to the given token validator.
func NewWSAuthMiddleware(validator TokenValidator, config ...router.WSAuthConfig) router.WebSocketMiddleware {
	var cfg router.WSAuthConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	cfg.TokenValidator = NewWSTokenValidator(validator)

	return router.NewWSAuth(cfg)
}

// WSClaimsFromContext retrieves the session claims stashed by the WebSocket
// auth middleware, when the connection was validated by this package.
func WSClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	wsAuthClaims, ok := router.WSAuthClaimsFromContext(ctx)
	if !ok {
		return nil, false
	}

	if adapter, ok := wsAuthClaims.(*WSAuthClaimsAdapter); ok {
		return adapter.claims, true
	}

	return nil, false
}
