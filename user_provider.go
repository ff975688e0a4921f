package session

import (
	"context"
	"net"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// UserTracker is a store we can use to retrieve and track users.
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// UserProvider verifies credentials against the embedded account store,
// enforcing the attempt budget and, when configured, an origin allowlist.
type UserProvider struct {
	store     UserTracker
	Validator func(*User) error
	logger    Logger
	allowed   []*net.IPNet
}

type userTrackerAdapter struct {
	users Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

// NewUserTracker adapts the Users repository onto the UserTracker seam,
// dropping the repository's optional select criteria.
func NewUserTracker(users Users) UserTracker {
	return userTrackerAdapter{users: users}
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker) *UserProvider {
	return &UserProvider{
		store:     store,
		logger:    defLogger{},
		Validator: defaultUserValidator,
	}
}

func (u *UserProvider) WithLogger(logger Logger) *UserProvider {
	if logger != nil {
		u.logger = logger
	}
	return u
}

// WithIPPolicy restricts logins to the given CIDR ranges. No ranges means
// no restriction.
func (u *UserProvider) WithIPPolicy(cidrs ...string) (*UserProvider, error) {
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return u, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid CIDR in IP policy").
				WithMetadata(map[string]any{"cidr": cidr})
		}
		u.allowed = append(u.allowed, network)
	}
	return u, nil
}

// CheckOrigin enforces the IP policy for the given remote address. The
// address may carry a port.
func (u *UserProvider) CheckOrigin(remoteAddr string) error {
	if len(u.allowed) == 0 || remoteAddr == "" {
		return nil
	}

	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return ErrIPDenied
	}

	for _, network := range u.allowed {
		if network.Contains(ip) {
			return nil
		}
	}

	return ErrIPDenied
}

func (u *UserProvider) validate(user *User) error {
	if u.Validator != nil {
		return u.Validator(user)
	}
	return defaultUserValidator(user)
}

// VerifyIdentity will find the user, compare to the password, and return
// the identity. Unknown identifiers and wrong passwords surface the same
// invalid credentials error so callers cannot enumerate accounts.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*IdentityRecord, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		u.logger.Warn("login blocked due to user status", "user_id", user.ID.String(), "status", user.Status)
		return nil, ErrInvalidCredentials
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrAccountLocked
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		// increment the login_attempts counter and login_attempt_at
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	// reset the login_attempts counter and login_attempt_at
	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return user.Identity(), nil
}

// FindIdentityByIdentifier resolves an identity without verifying
// credentials, e.g. for impersonation tooling.
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (*IdentityRecord, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if user == nil || !user.CanAuthenticate() {
		return nil, ErrIdentityNotFound
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return user.Identity(), nil
}

func defaultUserValidator(u *User) error {
	switch u.Role {
	case RoleOwner, RoleAdmin, RoleMember, RoleGuest:
		return nil
	default:
		return goerrors.New("user has an unknown or invalid role", goerrors.CategoryAuth).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": u.Role, "user_id": u.ID.String()})
	}
}
