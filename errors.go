package session

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced alongside structured errors so login surfaces can key
// inline messages without string matching.
const (
	TextCodeInvalidCreds    = "INVALID_CREDENTIALS"
	TextCodeAccountLocked   = "ACCOUNT_LOCKED"
	TextCodeIPDenied        = "IP_DENIED"
	TextCodeNetworkFailure  = "NETWORK_FAILURE"
	TextCodeUnknownFailure  = "UNKNOWN_AUTH_FAILURE"
	TextCodeIdentityMissing = "IDENTITY_NOT_FOUND"
	TextCodeEmptyPassword   = "EMPTY_PASSWORD"
)

// ErrInvalidCredentials is returned when the credential exchange rejects the
// identifier/password pair.
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned when the account exhausted its login attempt
// budget and is cooling down.
var ErrAccountLocked = goerrors.New("account is temporarily locked", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeAccountLocked).
	WithCode(goerrors.CodeForbidden)

// ErrIPDenied is returned when origin policy rejects the caller's address.
var ErrIPDenied = goerrors.New("origin address not allowed", goerrors.CategoryAuth).
	WithTextCode(TextCodeIPDenied).
	WithCode(goerrors.CodeForbidden)

// ErrNetworkFailure is returned when the identity service could not be
// reached at all.
var ErrNetworkFailure = goerrors.New("identity service unreachable", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetworkFailure)

// ErrUnknownAuthFailure is the catch-all for unclassified login failures.
var ErrUnknownAuthFailure = goerrors.New("authentication failed", goerrors.CategoryInternal).
	WithTextCode(TextCodeUnknownFailure)

// ErrIdentityNotFound is the error we return for non found identities.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityMissing)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value should not be an empty string", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrAnonymous is the expected probe outcome for a visitor with no server
// side session. The store absorbs it; it never crosses the Init boundary.
var ErrAnonymous = goerrors.New("no active session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// LoginErrorKind maps a login failure to the text code a login form keys its
// inline message by. Unclassified errors map to the unknown kind.
func LoginErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode != "" {
		return richErr.TextCode
	}

	return TextCodeUnknownFailure
}

// IsAnonymousError reports whether err is the expected "no session" signal
// rather than an actual failure.
func IsAnonymousError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAnonymous) {
		return true
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Code == goerrors.CodeUnauthorized && richErr.TextCode == ""
	}

	return false
}
