// Package user defines the user entity and auth-facing DTOs.
package user

import (
	"time"
)

// Roles. Role gates are enforced at the transport boundary.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// User is an account that can authenticate and act on tasks. A user
// holds at most one active refresh token; rotating or logging out
// replaces or clears it.
type User struct {
	ID                 string `gorm:"primaryKey;type:text"`
	FirstName          string
	LastName           string
	Email              string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash       string `gorm:"not null;type:text"`
	Role               string `gorm:"not null;default:User"`
	RefreshToken       string `gorm:"index"`
	RefreshTokenExpiry *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the Admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TokenPair is the credential set returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims is the authenticated principal extracted from an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
