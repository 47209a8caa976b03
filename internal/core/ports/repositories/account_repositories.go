package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
)

// AccountReader defines lookups for account data. Lookups that find nothing
// return apperrors.ErrNotFound.
type AccountReader interface {
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByEmail matches case-insensitively.
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// AccountWriter defines creation of accounts.
type AccountWriter interface {
	// SaveAccount inserts a new account. It returns apperrors.ErrDuplicate if
	// the email is taken.
	SaveAccount(ctx context.Context, account domain.Account) error
}

// AccountSessionStore holds the per-account session fields. Every setter
// overwrites the previous value.
type AccountSessionStore interface {
	FindAccountByRefreshTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error)

	// SetRefreshToken overwrites the refresh token unconditionally and returns
	// the new session version.
	SetRefreshToken(ctx context.Context, accountID string, tokenHash string, expiry time.Time) (int64, error)

	// RotateRefreshToken replaces the refresh token only if the stored session
	// version still equals expectedVersion. It returns apperrors.ErrConflict
	// otherwise.
	RotateRefreshToken(ctx context.Context, accountID string, expectedVersion int64, tokenHash string, expiry time.Time) (int64, error)

	ClearRefreshToken(ctx context.Context, accountID string) error
}

// AccountVerificationStore holds the email verification and password reset fields.
type AccountVerificationStore interface {
	FindAccountByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error)
	SetVerificationToken(ctx context.Context, accountID string, tokenHash string) error
	// MarkEmailVerified sets the verified flag and clears the verification
	// token, provided the stored token is still tokenHash. It returns
	// apperrors.ErrConflict otherwise.
	MarkEmailVerified(ctx context.Context, accountID string, tokenHash string) error

	FindAccountByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error)
	SetPasswordResetToken(ctx context.Context, accountID string, tokenHash string, expiry time.Time) error
	// CompletePasswordReset stores the new password hash and clears both the
	// reset token and the refresh token, provided the stored reset token is
	// still tokenHash. It returns apperrors.ErrConflict otherwise.
	CompletePasswordReset(ctx context.Context, accountID string, tokenHash string, passwordHash string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountSessionStore
	AccountVerificationStore
}
