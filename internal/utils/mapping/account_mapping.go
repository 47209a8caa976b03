package mapping

import (
	"database/sql"
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	"github.com/SscSPs/session_auth_service/internal/models"
)

func toNullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func toNullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func fromNullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:                    d.AccountID,
		Email:                        d.Email,
		DisplayName:                  d.DisplayName,
		AvatarURL:                    toNullString(d.AvatarURL),
		Role:                         string(d.Role),
		PasswordHash:                 toNullString(d.PasswordHash),
		RefreshTokenHash:             toNullString(d.RefreshTokenHash),
		RefreshTokenExpiryTime:       toNullTime(d.RefreshTokenExpiry),
		SessionVersion:               d.SessionVersion,
		EmailVerificationTokenHash:   toNullString(d.EmailVerificationTokenHash),
		IsEmailVerified:              d.IsEmailVerified,
		PasswordResetTokenHash:       toNullString(d.PasswordResetTokenHash),
		PasswordResetTokenExpiryTime: toNullTime(d.PasswordResetTokenExpiry),
		AuditFields:                  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:                  m.AccountID,
		Email:                      m.Email,
		DisplayName:                m.DisplayName,
		AvatarURL:                  fromNullString(m.AvatarURL),
		Role:                       domain.Role(m.Role),
		PasswordHash:               fromNullString(m.PasswordHash),
		RefreshTokenHash:           fromNullString(m.RefreshTokenHash),
		RefreshTokenExpiry:         fromNullTime(m.RefreshTokenExpiryTime),
		SessionVersion:             m.SessionVersion,
		EmailVerificationTokenHash: fromNullString(m.EmailVerificationTokenHash),
		IsEmailVerified:            m.IsEmailVerified,
		PasswordResetTokenHash:     fromNullString(m.PasswordResetTokenHash),
		PasswordResetTokenExpiry:   fromNullTime(m.PasswordResetTokenExpiryTime),
		AuditFields:                ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelExternalIdentity converts a domain ExternalIdentity to a model ExternalIdentity
func ToModelExternalIdentity(d domain.ExternalIdentity) models.ExternalIdentity {
	return models.ExternalIdentity{
		ID:                d.ID,
		Provider:          string(d.Provider),
		ProviderSubjectID: d.ProviderSubjectID,
		AccountID:         d.AccountID,
		Email:             d.Email,
		CreatedAt:         d.CreatedAt,
	}
}

// ToDomainExternalIdentity converts a model ExternalIdentity to a domain ExternalIdentity
func ToDomainExternalIdentity(m models.ExternalIdentity) domain.ExternalIdentity {
	return domain.ExternalIdentity{
		ID:                m.ID,
		Provider:          domain.AuthProvider(m.Provider),
		ProviderSubjectID: m.ProviderSubjectID,
		AccountID:         m.AccountID,
		Email:             m.Email,
		CreatedAt:         m.CreatedAt,
	}
}
