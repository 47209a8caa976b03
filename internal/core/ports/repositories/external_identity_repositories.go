package repositories

import (
	"context"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
)

// ExternalIdentityRepository persists (provider, subject) links.
type ExternalIdentityRepository interface {
	// FindExternalIdentity returns apperrors.ErrNotFound when the pair is unknown.
	FindExternalIdentity(ctx context.Context, provider domain.AuthProvider, subject string) (*domain.ExternalIdentity, error)

	// LinkExternalIdentity inserts a link to an existing account. It returns
	// apperrors.ErrDuplicate if the pair is already linked.
	LinkExternalIdentity(ctx context.Context, identity domain.ExternalIdentity) error

	// CreateAccountWithIdentity inserts a new account and its first identity
	// atomically. It returns apperrors.ErrDuplicate if either the email or the
	// pair already exists, in which case nothing is written.
	CreateAccountWithIdentity(ctx context.Context, account domain.Account, identity domain.ExternalIdentity) error
}
