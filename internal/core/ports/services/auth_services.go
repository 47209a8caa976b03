package services

import (
	"context"
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	"github.com/SscSPs/session_auth_service/internal/dto"
)

// TokenIssuerSvc mints and verifies session credentials. It has no side effects.
type TokenIssuerSvc interface {
	// MintAccessToken signs a short-lived access token carrying a snapshot of
	// the account's id, email and role.
	MintAccessToken(account *domain.Account) (string, time.Time, error)
	// MintRefreshToken returns a random opaque token unrelated to any account data.
	MintRefreshToken() (string, error)
	// MintOpaqueToken returns a random single-use token for verification and reset links.
	MintOpaqueToken() (string, error)
	// ParseAccessToken verifies signature, issuer and time claims.
	ParseAccessToken(token string) (*domain.SessionClaims, error)
}

// IdentityTokenValidator validates a provider-specific identity assertion.
type IdentityTokenValidator interface {
	Validate(ctx context.Context, idToken string) (*domain.ExternalIdentityInfo, error)
}

// ExternalIdentityResolverSvc dispatches identity assertions to the validator
// registered for their provider.
type ExternalIdentityResolverSvc interface {
	Supports(provider domain.AuthProvider) bool
	// Resolve returns apperrors.ErrUnsupportedProvider for unknown providers
	// and apperrors.ErrInvalidExternalToken when validation fails.
	Resolve(ctx context.Context, provider domain.AuthProvider, idToken string) (*domain.ExternalIdentityInfo, error)
}

// PasswordHasher is a one-way password hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Notifier delivers verification and reset links to the account owner.
type Notifier interface {
	SendEmailVerification(ctx context.Context, account *domain.Account, link string) error
	SendPasswordReset(ctx context.Context, account *domain.Account, link string, expiresAt time.Time) error
}

// AuthSessionSvc covers the flows that open, extend or close a session.
type AuthSessionSvc interface {
	Login(ctx context.Context, req dto.LoginRequest) (*domain.TokenPair, error)
	ExternalLogin(ctx context.Context, req dto.ExternalLoginRequest) (*domain.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
}

// AuthAccountSvc covers registration and the single-use token flows.
type AuthAccountSvc interface {
	Register(ctx context.Context, req dto.RegisterRequest) error
	VerifyEmail(ctx context.Context, token string) error
	// ResendVerification never reports whether the email exists.
	ResendVerification(ctx context.Context, email string)
	// ForgotPassword never reports whether the email exists.
	ForgotPassword(ctx context.Context, email string)
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// AuthSvcFacade combines all auth service interfaces.
type AuthSvcFacade interface {
	AuthSessionSvc
	AuthAccountSvc
}
