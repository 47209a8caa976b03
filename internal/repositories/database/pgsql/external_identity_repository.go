package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portsrepo "github.com/SscSPs/session_auth_service/internal/core/ports/repositories"
	"github.com/SscSPs/session_auth_service/internal/models"
	"github.com/SscSPs/session_auth_service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxExternalIdentityRepository struct {
	BaseRepository
}

func newPgxExternalIdentityRepository(pool *pgxpool.Pool) portsrepo.ExternalIdentityRepository {
	return &PgxExternalIdentityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExternalIdentityRepository = (*PgxExternalIdentityRepository)(nil)

const insertIdentityQuery = `
	INSERT INTO external_identities (id, provider, provider_subject_id, account_id, email, created_at)
	VALUES ($1, $2, $3, $4, $5, $6);
`

func insertIdentity(ctx context.Context, q execer, identity domain.ExternalIdentity) error {
	m := mapping.ToModelExternalIdentity(identity)
	_, err := q.Exec(ctx, insertIdentityQuery,
		m.ID,
		m.Provider,
		m.ProviderSubjectID,
		m.AccountID,
		m.Email,
		m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: identity %s/%s already linked", apperrors.ErrDuplicate, m.Provider, m.ProviderSubjectID)
		}
		if hasSQLState(err, foreignKeyViolation) {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, m.AccountID)
		}
		return fmt.Errorf("failed to save external identity: %w", err)
	}
	return nil
}

func (r *PgxExternalIdentityRepository) FindExternalIdentity(ctx context.Context, provider domain.AuthProvider, subject string) (*domain.ExternalIdentity, error) {
	query := `
		SELECT id, provider, provider_subject_id, account_id, email, created_at
		FROM external_identities
		WHERE provider = $1 AND provider_subject_id = $2;
	`
	var m models.ExternalIdentity
	err := r.Pool.QueryRow(ctx, query, string(provider), subject).Scan(
		&m.ID,
		&m.Provider,
		&m.ProviderSubjectID,
		&m.AccountID,
		&m.Email,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find external identity: %w", err)
	}
	d := mapping.ToDomainExternalIdentity(m)
	return &d, nil
}

func (r *PgxExternalIdentityRepository) LinkExternalIdentity(ctx context.Context, identity domain.ExternalIdentity) error {
	return insertIdentity(ctx, r.Pool, identity)
}

func (r *PgxExternalIdentityRepository) CreateAccountWithIdentity(ctx context.Context, account domain.Account, identity domain.ExternalIdentity) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	if err := insertAccount(ctx, tx, account); err != nil {
		return err
	}
	identity.AccountID = account.AccountID
	if err := insertIdentity(ctx, tx, identity); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}
