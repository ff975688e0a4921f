package session

import (
	"context"
)

// Logger is the minimal logging surface the library needs. Hosts plug in
// their own implementation; defLogger is used until they do.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityService is the remote collaborator that owns credentials and the
// server side session. The portal API implements it over HTTP; tests and
// embedded deployments implement it in process.
type IdentityService interface {
	// ExchangeCredentials trades a credential pair for the caller's identity.
	// Failures carry one of the structured error kinds in errors.go.
	ExchangeCredentials(ctx context.Context, identifier, password string) (*IdentityRecord, error)

	// FetchCurrentIdentity resolves the identity bound to the ambient
	// server side session. Failing is the normal signal for an anonymous
	// visitor, not an exceptional condition.
	FetchCurrentIdentity(ctx context.Context) (*IdentityRecord, error)

	// InvalidateSession tears down the server side session. Best effort:
	// local logout proceeds regardless of its outcome.
	InvalidateSession(ctx context.Context) error
}

// LoginPayload carries credentials from a login surface to the store.
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// Config holds the options guards and controllers read. Implementations
// usually live in the host's config package.
type Config interface {
	// GetFallbackRoute is where denied requests are redirected, typically
	// the login screen.
	GetFallbackRoute() string
	// GetPendingView names the view rendered while the identity probe has
	// not resolved yet.
	GetPendingView() string
	// GetAdminRole is the role code treated as the administrator marker.
	// Empty means RoleAdmin.
	GetAdminRole() string
}

type defLogger struct{}

func (defLogger) Debug(format string, args ...any) {}
func (defLogger) Info(format string, args ...any)  {}
func (defLogger) Warn(format string, args ...any)  {}
func (defLogger) Error(format string, args ...any) {}
