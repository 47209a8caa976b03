package domain

import "time"

// TokenPair is the result of every flow that opens or extends a session.
type TokenPair struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	AccountID            string
}

// SessionClaims is the verified content of an access token.
type SessionClaims struct {
	AccountID string
	Email     string
	Role      Role
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
