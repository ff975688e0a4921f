package session

import (
	"context"
	"sync"
)

// OriginResolver extracts the caller's remote address from the request
// scope so the provider's IP policy can run. Empty means unknown origin.
type OriginResolver func(ctx context.Context) string

// EmbeddedIdentityService implements IdentityService in process, backed by
// the UserProvider's account store. Intended for development deployments,
// tests, and portals that ship their identity data alongside the gateway.
//
// The "current" identity models the server side session the remote service
// variant keeps behind its cookie: login stores it, the probe returns it,
// invalidation clears it.
type EmbeddedIdentityService struct {
	provider *UserProvider
	origin   OriginResolver

	mu      sync.Mutex
	current *IdentityRecord
}

// NewEmbeddedIdentityService returns a service backed by the provider.
func NewEmbeddedIdentityService(provider *UserProvider) *EmbeddedIdentityService {
	return &EmbeddedIdentityService{provider: provider}
}

// WithOriginResolver wires the remote address lookup used by the IP policy.
func (e *EmbeddedIdentityService) WithOriginResolver(resolver OriginResolver) *EmbeddedIdentityService {
	e.origin = resolver
	return e
}

func (e *EmbeddedIdentityService) ExchangeCredentials(ctx context.Context, identifier, password string) (*IdentityRecord, error) {
	if e.origin != nil {
		if err := e.provider.CheckOrigin(e.origin(ctx)); err != nil {
			return nil, err
		}
	}

	identity, err := e.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.current = identity
	e.mu.Unlock()

	return identity, nil
}

func (e *EmbeddedIdentityService) FetchCurrentIdentity(ctx context.Context) (*IdentityRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return nil, ErrAnonymous
	}
	return e.current, nil
}

func (e *EmbeddedIdentityService) InvalidateSession(ctx context.Context) error {
	e.mu.Lock()
	e.current = nil
	e.mu.Unlock()
	return nil
}

var _ IdentityService = (*EmbeddedIdentityService)(nil)
