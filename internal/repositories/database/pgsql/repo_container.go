package pgsql

import (
	portsrepo "github.com/SscSPs/session_auth_service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	externalIdentityRepo := newPgxExternalIdentityRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:          accountRepo,
		ExternalIdentityRepo: externalIdentityRepo,
	}
}
