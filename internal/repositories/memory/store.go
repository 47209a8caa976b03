// Package memory is an in-process implementation of the repository ports.
// It backs the service when no database URL is configured and in tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portsrepo "github.com/SscSPs/session_auth_service/internal/core/ports/repositories"
)

type identityKey struct {
	provider domain.AuthProvider
	subject  string
}

// Store holds accounts and external identities behind a single lock, so
// multi-row writes are atomic.
type Store struct {
	mu         sync.RWMutex
	accounts   map[string]*domain.Account
	byEmail    map[string]string
	identities map[identityKey]domain.ExternalIdentity
	now        func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*domain.Account),
		byEmail:    make(map[string]string),
		identities: make(map[identityKey]domain.ExternalIdentity),
		now:        time.Now,
	}
}

// NewRepositoryProvider returns a provider whose repositories share s.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:          s,
		ExternalIdentityRepo: s,
	}
}

var (
	_ portsrepo.AccountRepositoryFacade    = (*Store)(nil)
	_ portsrepo.ExternalIdentityRepository = (*Store)(nil)
)

// AccountCount returns the number of stored accounts.
func (s *Store) AccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// IdentityCount returns the number of stored external identities.
func (s *Store) IdentityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities)
}

func strPtr(v string) *string {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

// clone returns a copy whose pointer fields do not alias the stored account.
func clone(a *domain.Account) *domain.Account {
	c := *a
	if a.AvatarURL != nil {
		c.AvatarURL = strPtr(*a.AvatarURL)
	}
	if a.PasswordHash != nil {
		c.PasswordHash = strPtr(*a.PasswordHash)
	}
	if a.RefreshTokenHash != nil {
		c.RefreshTokenHash = strPtr(*a.RefreshTokenHash)
	}
	if a.RefreshTokenExpiry != nil {
		c.RefreshTokenExpiry = timePtr(*a.RefreshTokenExpiry)
	}
	if a.EmailVerificationTokenHash != nil {
		c.EmailVerificationTokenHash = strPtr(*a.EmailVerificationTokenHash)
	}
	if a.PasswordResetTokenHash != nil {
		c.PasswordResetTokenHash = strPtr(*a.PasswordResetTokenHash)
	}
	if a.PasswordResetTokenExpiry != nil {
		c.PasswordResetTokenExpiry = timePtr(*a.PasswordResetTokenExpiry)
	}
	return &c
}

func (s *Store) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return clone(a), nil
}

func (s *Store) FindAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return clone(s.accounts[id]), nil
}

func (s *Store) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAccountLocked(account)
}

func (s *Store) insertAccountLocked(account domain.Account) error {
	email := strings.ToLower(account.Email)
	if _, taken := s.byEmail[email]; taken {
		return apperrors.ErrDuplicate
	}
	if _, taken := s.accounts[account.AccountID]; taken {
		return apperrors.ErrDuplicate
	}
	account.Email = email
	s.accounts[account.AccountID] = clone(&account)
	s.byEmail[email] = account.AccountID
	return nil
}

// findLocked returns the first account whose field selected by get equals hash.
func (s *Store) findLocked(hash string, get func(*domain.Account) *string) *domain.Account {
	if hash == "" {
		return nil
	}
	for _, a := range s.accounts {
		if v := get(a); v != nil && *v == hash {
			return a
		}
	}
	return nil
}

func (s *Store) FindAccountByRefreshTokenHash(_ context.Context, tokenHash string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.findLocked(tokenHash, func(a *domain.Account) *string { return a.RefreshTokenHash })
	if a == nil {
		return nil, apperrors.ErrNotFound
	}
	return clone(a), nil
}

func (s *Store) SetRefreshToken(_ context.Context, accountID string, tokenHash string, expiry time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	s.setRefreshLocked(a, tokenHash, expiry)
	return a.SessionVersion, nil
}

func (s *Store) RotateRefreshToken(_ context.Context, accountID string, expectedVersion int64, tokenHash string, expiry time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	if a.SessionVersion != expectedVersion {
		return 0, apperrors.ErrConflict
	}
	s.setRefreshLocked(a, tokenHash, expiry)
	return a.SessionVersion, nil
}

func (s *Store) setRefreshLocked(a *domain.Account, tokenHash string, expiry time.Time) {
	a.RefreshTokenHash = strPtr(tokenHash)
	a.RefreshTokenExpiry = timePtr(expiry)
	a.SessionVersion++
	a.LastUpdatedAt = s.now().UTC()
}

func (s *Store) ClearRefreshToken(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.RefreshTokenHash = nil
	a.RefreshTokenExpiry = nil
	a.SessionVersion++
	a.LastUpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) FindAccountByVerificationTokenHash(_ context.Context, tokenHash string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.findLocked(tokenHash, func(a *domain.Account) *string { return a.EmailVerificationTokenHash })
	if a == nil {
		return nil, apperrors.ErrNotFound
	}
	return clone(a), nil
}

func (s *Store) SetVerificationToken(_ context.Context, accountID string, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.EmailVerificationTokenHash = strPtr(tokenHash)
	a.LastUpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) MarkEmailVerified(_ context.Context, accountID string, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if a.EmailVerificationTokenHash == nil || *a.EmailVerificationTokenHash != tokenHash {
		return apperrors.ErrConflict
	}
	a.EmailVerificationTokenHash = nil
	a.IsEmailVerified = true
	a.LastUpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) FindAccountByResetTokenHash(_ context.Context, tokenHash string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.findLocked(tokenHash, func(a *domain.Account) *string { return a.PasswordResetTokenHash })
	if a == nil {
		return nil, apperrors.ErrNotFound
	}
	return clone(a), nil
}

func (s *Store) SetPasswordResetToken(_ context.Context, accountID string, tokenHash string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.PasswordResetTokenHash = strPtr(tokenHash)
	a.PasswordResetTokenExpiry = timePtr(expiry)
	a.LastUpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) CompletePasswordReset(_ context.Context, accountID string, tokenHash string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if a.PasswordResetTokenHash == nil || *a.PasswordResetTokenHash != tokenHash {
		return apperrors.ErrConflict
	}
	a.PasswordHash = strPtr(passwordHash)
	a.PasswordResetTokenHash = nil
	a.PasswordResetTokenExpiry = nil
	a.RefreshTokenHash = nil
	a.RefreshTokenExpiry = nil
	a.SessionVersion++
	a.LastUpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) FindExternalIdentity(_ context.Context, provider domain.AuthProvider, subject string) (*domain.ExternalIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[identityKey{provider, subject}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &identity, nil
}

func (s *Store) LinkExternalIdentity(_ context.Context, identity domain.ExternalIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[identity.AccountID]; !ok {
		return apperrors.ErrNotFound
	}
	key := identityKey{identity.Provider, identity.ProviderSubjectID}
	if _, taken := s.identities[key]; taken {
		return apperrors.ErrDuplicate
	}
	s.identities[key] = identity
	return nil
}

func (s *Store) CreateAccountWithIdentity(_ context.Context, account domain.Account, identity domain.ExternalIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey{identity.Provider, identity.ProviderSubjectID}
	if _, taken := s.identities[key]; taken {
		return apperrors.ErrDuplicate
	}
	if err := s.insertAccountLocked(account); err != nil {
		return err
	}
	identity.AccountID = account.AccountID
	s.identities[key] = identity
	return nil
}
