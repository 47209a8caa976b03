package models

import (
	"database/sql"
)

// Account is a row of the accounts table.
type Account struct {
	AccountID   string         `db:"account_id"`
	Email       string         `db:"email"`
	DisplayName string         `db:"display_name"`
	AvatarURL   sql.NullString `db:"avatar_url"`
	Role        string         `db:"role"`

	PasswordHash sql.NullString `db:"password_hash"`

	// Refresh Token Fields
	RefreshTokenHash       sql.NullString `db:"refresh_token_hash"`        // SHA-256 of the refresh token
	RefreshTokenExpiryTime sql.NullTime   `db:"refresh_token_expiry_time"` // Expiry of the stored refresh token
	SessionVersion         int64          `db:"session_version"`

	EmailVerificationTokenHash sql.NullString `db:"email_verification_token_hash"`
	IsEmailVerified            bool           `db:"is_email_verified"`

	PasswordResetTokenHash       sql.NullString `db:"password_reset_token_hash"`
	PasswordResetTokenExpiryTime sql.NullTime   `db:"password_reset_token_expiry_time"`

	AuditFields
}
