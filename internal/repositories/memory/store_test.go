package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	"github.com/SscSPs/session_auth_service/internal/core/domain"
	"github.com/SscSPs/session_auth_service/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
}

func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.Require().NoError(suite.store.SaveAccount(suite.ctx, domain.Account{
		AccountID: "acc-1",
		Email:     "Alice@Example.com",
		Role:      domain.RoleUser,
	}))
}

func (suite *StoreTestSuite) TestSaveAccount_DuplicateEmail() {
	err := suite.store.SaveAccount(suite.ctx, domain.Account{AccountID: "acc-2", Email: "alice@example.COM"})
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Equal(1, suite.store.AccountCount())
}

func (suite *StoreTestSuite) TestFindAccountByEmail_CaseInsensitive() {
	account, err := suite.store.FindAccountByEmail(suite.ctx, "ALICE@example.com")
	suite.Require().NoError(err)
	suite.Equal("acc-1", account.AccountID)
	suite.Equal("alice@example.com", account.Email)

	_, err = suite.store.FindAccountByEmail(suite.ctx, "bob@example.com")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *StoreTestSuite) TestReturnedAccountsAreCopies() {
	account, err := suite.store.FindAccountByID(suite.ctx, "acc-1")
	suite.Require().NoError(err)
	account.DisplayName = "mutated"

	again, err := suite.store.FindAccountByID(suite.ctx, "acc-1")
	suite.Require().NoError(err)
	suite.Empty(again.DisplayName)
}

func (suite *StoreTestSuite) TestRefreshTokenVersioning() {
	expiry := time.Now().Add(time.Hour)

	v1, err := suite.store.SetRefreshToken(suite.ctx, "acc-1", "hash-1", expiry)
	suite.Require().NoError(err)

	found, err := suite.store.FindAccountByRefreshTokenHash(suite.ctx, "hash-1")
	suite.Require().NoError(err)
	suite.Equal(v1, found.SessionVersion)

	v2, err := suite.store.RotateRefreshToken(suite.ctx, "acc-1", v1, "hash-2", expiry)
	suite.Require().NoError(err)
	suite.Greater(v2, v1)

	// A second rotation from the same starting version loses.
	_, err = suite.store.RotateRefreshToken(suite.ctx, "acc-1", v1, "hash-3", expiry)
	suite.ErrorIs(err, apperrors.ErrConflict)

	_, err = suite.store.FindAccountByRefreshTokenHash(suite.ctx, "hash-1")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	suite.Require().NoError(suite.store.ClearRefreshToken(suite.ctx, "acc-1"))
	_, err = suite.store.FindAccountByRefreshTokenHash(suite.ctx, "hash-2")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.store.SetRefreshToken(suite.ctx, "missing", "hash", expiry)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *StoreTestSuite) TestMarkEmailVerified_ConditionalOnToken() {
	suite.Require().NoError(suite.store.SetVerificationToken(suite.ctx, "acc-1", "verify-1"))

	suite.ErrorIs(suite.store.MarkEmailVerified(suite.ctx, "acc-1", "verify-old"), apperrors.ErrConflict)
	suite.Require().NoError(suite.store.MarkEmailVerified(suite.ctx, "acc-1", "verify-1"))
	suite.ErrorIs(suite.store.MarkEmailVerified(suite.ctx, "acc-1", "verify-1"), apperrors.ErrConflict)

	account, err := suite.store.FindAccountByID(suite.ctx, "acc-1")
	suite.Require().NoError(err)
	suite.True(account.IsEmailVerified)
	suite.Nil(account.EmailVerificationTokenHash)
}

func (suite *StoreTestSuite) TestCompletePasswordReset_ClearsSession() {
	expiry := time.Now().Add(time.Hour)
	_, err := suite.store.SetRefreshToken(suite.ctx, "acc-1", "refresh", expiry)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.SetPasswordResetToken(suite.ctx, "acc-1", "reset-1", expiry))

	found, err := suite.store.FindAccountByResetTokenHash(suite.ctx, "reset-1")
	suite.Require().NoError(err)
	suite.Equal("acc-1", found.AccountID)

	suite.ErrorIs(suite.store.CompletePasswordReset(suite.ctx, "acc-1", "reset-other", "pw"), apperrors.ErrConflict)
	suite.Require().NoError(suite.store.CompletePasswordReset(suite.ctx, "acc-1", "reset-1", "new-hash"))

	account, err := suite.store.FindAccountByID(suite.ctx, "acc-1")
	suite.Require().NoError(err)
	suite.Equal("new-hash", *account.PasswordHash)
	suite.Nil(account.PasswordResetTokenHash)
	suite.Nil(account.RefreshTokenHash)
}

func (suite *StoreTestSuite) TestExternalIdentities() {
	identity := domain.ExternalIdentity{ID: "id-1", Provider: domain.ProviderGoogle, ProviderSubjectID: "g-1", AccountID: "acc-1"}
	suite.Require().NoError(suite.store.LinkExternalIdentity(suite.ctx, identity))
	suite.ErrorIs(suite.store.LinkExternalIdentity(suite.ctx, identity), apperrors.ErrDuplicate)

	found, err := suite.store.FindExternalIdentity(suite.ctx, domain.ProviderGoogle, "g-1")
	suite.Require().NoError(err)
	suite.Equal("acc-1", found.AccountID)

	orphan := domain.ExternalIdentity{ID: "id-2", Provider: domain.ProviderGoogle, ProviderSubjectID: "g-2", AccountID: "missing"}
	suite.ErrorIs(suite.store.LinkExternalIdentity(suite.ctx, orphan), apperrors.ErrNotFound)
}

func (suite *StoreTestSuite) TestCreateAccountWithIdentity_IsAtomic() {
	// The email is taken, so neither row may be written.
	err := suite.store.CreateAccountWithIdentity(suite.ctx,
		domain.Account{AccountID: "acc-2", Email: "alice@example.com"},
		domain.ExternalIdentity{ID: "id-2", Provider: domain.ProviderGoogle, ProviderSubjectID: "g-2"})
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Equal(1, suite.store.AccountCount())
	suite.Equal(0, suite.store.IdentityCount())

	err = suite.store.CreateAccountWithIdentity(suite.ctx,
		domain.Account{AccountID: "acc-3", Email: "carol@example.com"},
		domain.ExternalIdentity{ID: "id-3", Provider: domain.ProviderGoogle, ProviderSubjectID: "g-3"})
	suite.Require().NoError(err)
	identity, err := suite.store.FindExternalIdentity(suite.ctx, domain.ProviderGoogle, "g-3")
	suite.Require().NoError(err)
	suite.Equal("acc-3", identity.AccountID)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func TestNewRepositoryProvider_SharesStore(t *testing.T) {
	store := memory.NewStore()
	repos := memory.NewRepositoryProvider(store)

	require.NoError(t, repos.AccountRepo.SaveAccount(context.Background(), domain.Account{AccountID: "a", Email: "a@example.com"}))
	assert.Equal(t, 1, store.AccountCount())
	assert.Same(t, store, repos.ExternalIdentityRepo)
}
