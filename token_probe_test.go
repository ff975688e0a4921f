package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	session "github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

func mintToken(t *testing.T, key []byte, mutate func(*session.SessionClaims)) string {
	t.Helper()

	claims := &session.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username:    "pepe",
		Email:       "pepe@example.com",
		DisplayName: "Pepe Rone",
		RoleCodes:   []string{"member"},
	}
	if mutate != nil {
		mutate(claims)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestHMACTokenValidator(t *testing.T) {
	validator := session.NewHMACTokenValidator(testSigningKey)

	claims, err := validator.Validate(mintToken(t, testSigningKey, nil))
	require.NoError(t, err)
	assert.Equal(t, "usr-123", claims.UserID())
	assert.Equal(t, "pepe", claims.Username)
}

func TestHMACTokenValidatorRejectsBadSignature(t *testing.T) {
	validator := session.NewHMACTokenValidator(testSigningKey)

	_, err := validator.Validate(mintToken(t, []byte("other-key"), nil))
	require.Error(t, err)
}

func TestHMACTokenValidatorExpired(t *testing.T) {
	validator := session.NewHMACTokenValidator(testSigningKey)

	token := mintToken(t, testSigningKey, func(c *session.SessionClaims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	})

	_, err := validator.Validate(token)
	require.Error(t, err)
	assert.True(t, session.IsTokenExpiredError(err))
	assert.False(t, session.IsMalformedError(err))
}

func TestHMACTokenValidatorMalformed(t *testing.T) {
	validator := session.NewHMACTokenValidator(testSigningKey)

	_, err := validator.Validate("not.a.token")
	require.Error(t, err)
	assert.True(t, session.IsMalformedError(err))
}

func TestMultiTokenValidator(t *testing.T) {
	primary := session.NewHMACTokenValidator([]byte("rotated-away"))
	secondary := session.NewHMACTokenValidator(testSigningKey)

	multi := session.NewMultiTokenValidator(primary, nil, secondary)

	claims, err := multi.Validate(mintToken(t, testSigningKey, nil))
	require.NoError(t, err)
	assert.Equal(t, "usr-123", claims.UserID())

	// expired is terminal, not "try next"
	expired := mintToken(t, testSigningKey, func(c *session.SessionClaims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	})
	_, err = session.NewMultiTokenValidator(secondary, primary).Validate(expired)
	assert.True(t, session.IsTokenExpiredError(err))

	_, err = session.NewMultiTokenValidator().Validate("anything")
	assert.True(t, session.IsMalformedError(err))
}

func TestSessionClaimsIdentity(t *testing.T) {
	claims := &session.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "usr-123"},
		Username:         "pepe",
		UserRole:         "admin",
		RoleCodes:        []string{"member"},
	}

	identity, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, "usr-123", identity.ID)
	assert.True(t, identity.RoleSet().Has("member"))
	assert.True(t, identity.RoleSet().Has("admin"), "legacy role claim folds in")

	// uid claim wins over subject
	claims.UID = "usr-456"
	identity, err = claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, "usr-456", identity.ID)

	// no subject at all is unusable
	empty := &session.SessionClaims{}
	_, err = empty.Identity()
	assert.Error(t, err)
}

func TestTokenProbeFastPath(t *testing.T) {
	next := &MockIdentityService{}

	probe := session.NewTokenProbe(
		next,
		func(ctx context.Context) string { return mintToken(t, testSigningKey, nil) },
		session.NewHMACTokenValidator(testSigningKey),
	)

	identity, err := probe.FetchCurrentIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "usr-123", identity.ID)

	next.AssertNotCalled(t, "FetchCurrentIdentity", mock.Anything)
}

func TestTokenProbeFallsBackWithoutToken(t *testing.T) {
	next := &MockIdentityService{}
	next.On("FetchCurrentIdentity", mock.Anything).Return(testIdentity(), nil).Once()

	probe := session.NewTokenProbe(
		next,
		func(ctx context.Context) string { return "" },
		session.NewHMACTokenValidator(testSigningKey),
	)

	identity, err := probe.FetchCurrentIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "usr-123", identity.ID)
	next.AssertExpectations(t)
}

func TestTokenProbeFallsBackOnInvalidToken(t *testing.T) {
	next := &MockIdentityService{}
	next.On("FetchCurrentIdentity", mock.Anything).Return(nil, session.ErrAnonymous).Once()

	probe := session.NewTokenProbe(
		next,
		func(ctx context.Context) string { return mintToken(t, []byte("other-key"), nil) },
		session.NewHMACTokenValidator(testSigningKey),
	)

	_, err := probe.FetchCurrentIdentity(context.Background())
	assert.True(t, session.IsAnonymousError(err))
	next.AssertExpectations(t)
}

func TestTokenProbeLogsIdentityFailure(t *testing.T) {
	next := &MockIdentityService{}
	next.On("FetchCurrentIdentity", mock.Anything).Return(testIdentity(), nil).Once()

	logger := &recordingLogger{}
	probe := session.NewTokenProbe(
		next,
		func(ctx context.Context) string {
			// valid signature, but no subject or uid to build an identity from
			return mintToken(t, testSigningKey, func(c *session.SessionClaims) {
				c.Subject = ""
			})
		},
		session.NewHMACTokenValidator(testSigningKey),
	).WithLogger(logger)

	identity, err := probe.FetchCurrentIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "usr-123", identity.ID)

	entries := logger.Entries("debug")
	require.Len(t, entries, 1)
	require.Len(t, entries[0].args, 2)
	assert.Equal(t, "error", entries[0].args[0])
	assert.Error(t, entries[0].args[1].(error))
	next.AssertExpectations(t)
}

func TestTokenProbePassesThroughOtherCalls(t *testing.T) {
	next := &MockIdentityService{}
	next.On("ExchangeCredentials", mock.Anything, "pepe", "secret").Return(testIdentity(), nil).Once()
	next.On("InvalidateSession", mock.Anything).Return(nil).Once()

	probe := session.NewTokenProbe(next, nil, nil)

	_, err := probe.ExchangeCredentials(context.Background(), "pepe", "secret")
	require.NoError(t, err)
	require.NoError(t, probe.InvalidateSession(context.Background()))
	next.AssertExpectations(t)
}
