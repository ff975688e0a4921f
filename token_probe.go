package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TextCodeTokenExpired   = "TOKEN_EXPIRED"
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
)

// ErrTokenExpired is returned when a session token's exp claim has passed.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed at all.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens, including legacy
// string-matched errors from upstream JWT libraries.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for parse failures.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// TokenValidator validates session tokens and extracts claims without tying
// callers to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (*SessionClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (*SessionClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (*SessionClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

// MultiTokenValidator tries validators in order until one succeeds. It
// treats malformed as "try next" and returns the last malformed error if
// all validators fail.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Validate satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Validate(tokenString string) (*SessionClaims, error) {
	var lastErr error
	for _, v := range m.validators {
		claims, err := v.Validate(tokenString)
		if err == nil {
			return claims, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTokenMalformed
}

// NewHMACTokenValidator validates tokens signed with a shared HMAC key.
func NewHMACTokenValidator(signingKey []byte, parserOptions ...jwt.ParserOption) TokenValidator {
	return TokenValidatorFunc(func(tokenString string) (*SessionClaims, error) {
		token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return signingKey, nil
		}, parserOptions...)
		return claimsFromToken(token, err)
	})
}

// NewJWKSTokenValidator validates tokens against the identity provider's
// JWK Set endpoint. The returned validator refreshes keys per the keyfunc
// defaults.
func NewJWKSTokenValidator(jwksURL string, parserOptions ...jwt.ParserOption) (TokenValidator, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to fetch JWK set").
			WithMetadata(map[string]any{"url": jwksURL})
	}

	return TokenValidatorFunc(func(tokenString string) (*SessionClaims, error) {
		token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, jwks.Keyfunc, parserOptions...)
		return claimsFromToken(token, err)
	}), nil
}

func claimsFromToken(token *jwt.Token, err error) (*SessionClaims, error) {
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(TextCodeTokenMalformed)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenMalformed
}

// TokenSource yields the locally held session token for the current
// request scope, typically read from a cookie. Empty token means none.
type TokenSource func(ctx context.Context) string

// TokenProbe decorates an IdentityService with a local fast path: before
// paying a network round trip, FetchCurrentIdentity tries to validate the
// session token and map its claims. Any validation failure falls back to
// the wrapped service; credential exchange and invalidation pass through.
type TokenProbe struct {
	next      IdentityService
	source    TokenSource
	validator TokenValidator
	logger    Logger
}

// NewTokenProbe wraps next with the token fast path.
func NewTokenProbe(next IdentityService, source TokenSource, validator TokenValidator) *TokenProbe {
	return &TokenProbe{
		next:      next,
		source:    source,
		validator: validator,
		logger:    defLogger{},
	}
}

func (p *TokenProbe) WithLogger(logger Logger) *TokenProbe {
	if logger != nil {
		p.logger = logger
	}
	return p
}

func (p *TokenProbe) ExchangeCredentials(ctx context.Context, identifier, password string) (*IdentityRecord, error) {
	return p.next.ExchangeCredentials(ctx, identifier, password)
}

func (p *TokenProbe) FetchCurrentIdentity(ctx context.Context) (*IdentityRecord, error) {
	token := ""
	if p.source != nil {
		token = p.source(ctx)
	}

	if token != "" && p.validator != nil {
		claims, err := p.validator.Validate(token)
		if err == nil {
			identity, idErr := claims.Identity()
			if idErr == nil {
				return identity, nil
			}
			err = idErr
		}
		p.logger.Debug("token fast path missed, probing identity service", "error", err)
	}

	return p.next.FetchCurrentIdentity(ctx)
}

func (p *TokenProbe) InvalidateSession(ctx context.Context) error {
	return p.next.InvalidateSession(ctx)
}

var _ IdentityService = (*TokenProbe)(nil)
