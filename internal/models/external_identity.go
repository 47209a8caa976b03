package models

import "time"

// ExternalIdentity is a row of the external_identities table.
type ExternalIdentity struct {
	ID                string    `db:"id"`
	Provider          string    `db:"provider"`
	ProviderSubjectID string    `db:"provider_subject_id"`
	AccountID         string    `db:"account_id"`
	Email             string    `db:"email"`
	CreatedAt         time.Time `db:"created_at"`
}
