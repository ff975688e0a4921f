package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the lifecycle status of a portal account.
type UserStatus = string

const (
	// UserStatusActive may authenticate.
	UserStatusActive UserStatus = "active"
	// UserStatusSuspended is temporarily blocked by an administrator.
	UserStatusSuspended UserStatus = "suspended"
	// UserStatusArchived is terminal; the account is retired.
	UserStatusArchived UserStatus = "archived"
)

// User is the account model backing the embedded identity provider.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           RoleCode   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Status         UserStatus `bun:"status" json:"status,omitempty"`
	DisplayName    string     `bun:"display_name" json:"display_name,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	AvatarURL      string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the status for rows created before the column
// existed; absence means active.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// CanAuthenticate reports whether the account's status permits login.
func (u *User) CanAuthenticate() bool {
	u.EnsureStatus()
	return u.Status == UserStatusActive
}

// Identity maps the account onto the record shape the store holds.
func (u *User) Identity() *IdentityRecord {
	if u == nil {
		return nil
	}
	return &IdentityRecord{
		ID:          u.ID.String(),
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		LegacyRole:  u.Role,
	}
}
