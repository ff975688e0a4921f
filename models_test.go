package session_test

import (
	"testing"

	"github.com/google/uuid"
	session "github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEnsureStatus(t *testing.T) {
	user := &session.User{}
	user.EnsureStatus()
	assert.Equal(t, session.UserStatusActive, user.Status)

	suspended := &session.User{Status: session.UserStatusSuspended}
	suspended.EnsureStatus()
	assert.Equal(t, session.UserStatusSuspended, suspended.Status)
}

func TestUserCanAuthenticate(t *testing.T) {
	tests := []struct {
		name   string
		status session.UserStatus
		want   bool
	}{
		{"active", session.UserStatusActive, true},
		{"legacy empty status", "", true},
		{"suspended", session.UserStatusSuspended, false},
		{"archived", session.UserStatusArchived, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user := &session.User{Status: tc.status}
			assert.Equal(t, tc.want, user.CanAuthenticate())
		})
	}
}

func TestUserIdentity(t *testing.T) {
	id := uuid.New()
	user := &session.User{
		ID:          id,
		Role:        session.RoleAdmin,
		Username:    "pepe",
		Email:       "pepe@example.com",
		DisplayName: "Pepe Rone",
		AvatarURL:   "https://cdn.example.com/pepe.png",
	}

	identity := user.Identity()
	require.NotNil(t, identity)
	assert.Equal(t, id.String(), identity.ID)
	assert.Equal(t, "pepe", identity.Username)
	assert.Equal(t, "pepe@example.com", identity.Email)
	assert.Equal(t, "Pepe Rone", identity.DisplayName)
	assert.Equal(t, "https://cdn.example.com/pepe.png", identity.AvatarURL)
	assert.True(t, identity.RoleSet().Has(session.RoleAdmin))
}

func TestUserIdentityNilReceiver(t *testing.T) {
	var user *session.User
	assert.Nil(t, user.Identity())
}
