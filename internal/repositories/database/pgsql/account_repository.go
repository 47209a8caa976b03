package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portsrepo "github.com/SscSPs/session_auth_service/internal/core/ports/repositories"
	"github.com/SscSPs/session_auth_service/internal/models"
	"github.com/SscSPs/session_auth_service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, email, display_name, avatar_url, role, password_hash,
	refresh_token_hash, refresh_token_expiry_time, session_version,
	email_verification_token_hash, is_email_verified,
	password_reset_token_hash, password_reset_token_expiry_time,
	created_at, last_updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Email,
		&m.DisplayName,
		&m.AvatarURL,
		&m.Role,
		&m.PasswordHash,
		&m.RefreshTokenHash,
		&m.RefreshTokenExpiryTime,
		&m.SessionVersion,
		&m.EmailVerificationTokenHash,
		&m.IsEmailVerified,
		&m.PasswordResetTokenHash,
		&m.PasswordResetTokenExpiryTime,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	d := mapping.ToDomainAccount(m)
	return &d, nil
}

func (r *PgxAccountRepository) findOne(ctx context.Context, where string, arg any) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where + `;`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, arg))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, err
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, "account_id = $1", accountID)
}

func (r *PgxAccountRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "email = lower($1)", email)
}

func (r *PgxAccountRepository) FindAccountByRefreshTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	return r.findOne(ctx, "refresh_token_hash = $1", tokenHash)
}

func (r *PgxAccountRepository) FindAccountByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	return r.findOne(ctx, "email_verification_token_hash = $1", tokenHash)
}

func (r *PgxAccountRepository) FindAccountByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	return r.findOne(ctx, "password_reset_token_hash = $1", tokenHash)
}

const insertAccountQuery = `
	INSERT INTO accounts (account_id, email, display_name, avatar_url, role, password_hash,
		email_verification_token_hash, is_email_verified, created_at, last_updated_at)
	VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10);
`

func insertAccount(ctx context.Context, q execer, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	_, err := q.Exec(ctx, insertAccountQuery,
		m.AccountID,
		m.Email,
		m.DisplayName,
		m.AvatarURL,
		m.Role,
		m.PasswordHash,
		m.EmailVerificationTokenHash,
		m.IsEmailVerified,
		m.CreatedAt,
		m.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account with email %s already exists", apperrors.ErrDuplicate, m.Email)
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
	}
	return nil
}

func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	return insertAccount(ctx, r.Pool, account)
}

// execOne runs an UPDATE expected to touch exactly one row. When nothing
// matched it tells a missing account apart from a failed guard condition.
func (r *PgxAccountRepository) execOne(ctx context.Context, accountID, query string, args ...any) error {
	tag, err := r.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.FindAccountByID(ctx, accountID); err != nil {
		return err
	}
	return apperrors.ErrConflict
}

func (r *PgxAccountRepository) SetRefreshToken(ctx context.Context, accountID string, tokenHash string, expiry time.Time) (int64, error) {
	query := `
		UPDATE accounts
		SET refresh_token_hash = $2, refresh_token_expiry_time = $3,
			session_version = session_version + 1, last_updated_at = NOW()
		WHERE account_id = $1
		RETURNING session_version;
	`
	var version int64
	if err := r.Pool.QueryRow(ctx, query, accountID, tokenHash, expiry).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to set refresh token for account %s: %w", accountID, err)
	}
	return version, nil
}

func (r *PgxAccountRepository) RotateRefreshToken(ctx context.Context, accountID string, expectedVersion int64, tokenHash string, expiry time.Time) (int64, error) {
	query := `
		UPDATE accounts
		SET refresh_token_hash = $3, refresh_token_expiry_time = $4,
			session_version = session_version + 1, last_updated_at = NOW()
		WHERE account_id = $1 AND session_version = $2
		RETURNING session_version;
	`
	var version int64
	err := r.Pool.QueryRow(ctx, query, accountID, expectedVersion, tokenHash, expiry).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, findErr := r.FindAccountByID(ctx, accountID); findErr != nil {
				return 0, findErr
			}
			return 0, apperrors.ErrConflict
		}
		return 0, fmt.Errorf("failed to rotate refresh token for account %s: %w", accountID, err)
	}
	return version, nil
}

func (r *PgxAccountRepository) ClearRefreshToken(ctx context.Context, accountID string) error {
	query := `
		UPDATE accounts
		SET refresh_token_hash = NULL, refresh_token_expiry_time = NULL,
			session_version = session_version + 1, last_updated_at = NOW()
		WHERE account_id = $1;
	`
	return r.execOne(ctx, accountID, query, accountID)
}

func (r *PgxAccountRepository) SetVerificationToken(ctx context.Context, accountID string, tokenHash string) error {
	query := `
		UPDATE accounts
		SET email_verification_token_hash = $2, last_updated_at = NOW()
		WHERE account_id = $1;
	`
	return r.execOne(ctx, accountID, query, accountID, tokenHash)
}

func (r *PgxAccountRepository) MarkEmailVerified(ctx context.Context, accountID string, tokenHash string) error {
	query := `
		UPDATE accounts
		SET is_email_verified = TRUE, email_verification_token_hash = NULL, last_updated_at = NOW()
		WHERE account_id = $1 AND email_verification_token_hash = $2;
	`
	return r.execOne(ctx, accountID, query, accountID, tokenHash)
}

func (r *PgxAccountRepository) SetPasswordResetToken(ctx context.Context, accountID string, tokenHash string, expiry time.Time) error {
	query := `
		UPDATE accounts
		SET password_reset_token_hash = $2, password_reset_token_expiry_time = $3, last_updated_at = NOW()
		WHERE account_id = $1;
	`
	return r.execOne(ctx, accountID, query, accountID, tokenHash, expiry)
}

func (r *PgxAccountRepository) CompletePasswordReset(ctx context.Context, accountID string, tokenHash string, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $3,
			password_reset_token_hash = NULL, password_reset_token_expiry_time = NULL,
			refresh_token_hash = NULL, refresh_token_expiry_time = NULL,
			session_version = session_version + 1, last_updated_at = NOW()
		WHERE account_id = $1 AND password_reset_token_hash = $2;
	`
	return r.execOne(ctx, accountID, query, accountID, tokenHash, passwordHash)
}
