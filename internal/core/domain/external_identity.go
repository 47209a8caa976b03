package domain

import "time"

// AuthProvider identifies a third-party identity provider.
type AuthProvider string

const (
	ProviderGoogle AuthProvider = "google"
)

// ExternalIdentity links a (provider, subject) pair to exactly one Account.
type ExternalIdentity struct {
	ID                string       `json:"id"`
	Provider          AuthProvider `json:"provider"`
	ProviderSubjectID string       `json:"providerSubjectID"`
	AccountID         string       `json:"accountID"`
	Email             string       `json:"email"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// ExternalIdentityInfo is what a provider validator extracts from a verified
// identity assertion.
type ExternalIdentityInfo struct {
	Provider      AuthProvider
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	AvatarURL     string
}
