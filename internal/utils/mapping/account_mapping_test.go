package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestAccountMapping_PreservesOptionalColumns(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hash := "abc"
	d := domain.Account{
		AccountID:          "acc-1",
		Email:              "a@b.com",
		Role:               domain.RoleAdmin,
		PasswordHash:       &hash,
		RefreshTokenHash:   &hash,
		RefreshTokenExpiry: &now,
		SessionVersion:     7,
		AuditFields:        domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}

	m := ToModelAccount(d)
	assert.True(t, m.PasswordHash.Valid)
	assert.True(t, m.RefreshTokenExpiryTime.Valid)
	assert.False(t, m.AvatarURL.Valid)
	assert.False(t, m.PasswordResetTokenExpiryTime.Valid)

	back := ToDomainAccount(m)
	assert.Equal(t, d, back)
}

func TestToDomainAccount_NullColumnsBecomeNil(t *testing.T) {
	back := ToDomainAccount(ToModelAccount(domain.Account{AccountID: "acc-2", Role: domain.RoleUser}))
	assert.Nil(t, back.PasswordHash)
	assert.Nil(t, back.RefreshTokenHash)
	assert.Nil(t, back.RefreshTokenExpiry)
	assert.False(t, back.HasPassword())
}
