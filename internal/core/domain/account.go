package domain

import "time"

// Role is the authorization role embedded in access tokens.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Account represents a local identity that can hold a session.
//
// Opaque tokens are never stored in the clear: the *Hash fields hold the
// SHA-256 digest of the value handed out to the user.
type Account struct {
	AccountID   string  `json:"accountID"`
	Email       string  `json:"email"` // always lower-cased
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarURL,omitempty"`
	Role        Role    `json:"role"`

	PasswordHash *string `json:"-"`

	RefreshTokenHash   *string    `json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
	// SessionVersion is bumped on every refresh token write and compared on rotation.
	SessionVersion int64 `json:"-"`

	EmailVerificationTokenHash *string `json:"-"`
	IsEmailVerified            bool    `json:"isEmailVerified"`

	PasswordResetTokenHash   *string    `json:"-"`
	PasswordResetTokenExpiry *time.Time `json:"-"`

	AuditFields
}

// HasPassword reports whether the account can log in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// RefreshTokenExpired reports whether the stored refresh token is missing or
// its expiry is at or before now.
func (a *Account) RefreshTokenExpired(now time.Time) bool {
	return a.RefreshTokenExpiry == nil || !a.RefreshTokenExpiry.After(now)
}

// PasswordResetExpired reports whether the stored reset token is missing or
// its expiry is at or before now.
func (a *Account) PasswordResetExpired(now time.Time) bool {
	return a.PasswordResetTokenExpiry == nil || !a.PasswordResetTokenExpiry.After(now)
}
