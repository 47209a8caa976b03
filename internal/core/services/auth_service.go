package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portsrepo "github.com/SscSPs/session_auth_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/dto"
	"github.com/SscSPs/session_auth_service/internal/utils"
	"github.com/google/uuid"
)

const (
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultResetTokenTTL   = time.Hour
)

// authService implements AuthSvcFacade by composing the token issuer, the
// account session store and the external identity resolver.
type authService struct {
	BaseService
	accountRepo     portsrepo.AccountRepositoryFacade
	identityRepo    portsrepo.ExternalIdentityRepository
	tokenIssuer     portssvc.TokenIssuerSvc
	resolver        portssvc.ExternalIdentityResolverSvc
	hasher          portssvc.PasswordHasher
	notifier        portssvc.Notifier
	refreshTTL      time.Duration
	resetTTL        time.Duration
	frontendBaseURL string
}

// AuthServiceOption is a functional option for configuring the auth service
type AuthServiceOption func(*authService)

// WithClock overrides the time source used for expiries.
func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *authService) {
		s.now = now
	}
}

// WithPasswordHasher replaces the default bcrypt hasher.
func WithPasswordHasher(hasher portssvc.PasswordHasher) AuthServiceOption {
	return func(s *authService) {
		s.hasher = hasher
	}
}

// WithNotifier sets the delivery channel for verification and reset links.
func WithNotifier(notifier portssvc.Notifier) AuthServiceOption {
	return func(s *authService) {
		s.notifier = notifier
	}
}

// WithExternalIdentityResolver enables external login.
func WithExternalIdentityResolver(resolver portssvc.ExternalIdentityResolverSvc) AuthServiceOption {
	return func(s *authService) {
		s.resolver = resolver
	}
}

// WithRefreshTokenTTL sets the validity of issued refresh tokens.
func WithRefreshTokenTTL(ttl time.Duration) AuthServiceOption {
	return func(s *authService) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithResetTokenTTL sets the validity of password reset tokens.
func WithResetTokenTTL(ttl time.Duration) AuthServiceOption {
	return func(s *authService) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// WithFrontendBaseURL sets the origin that verification and reset links point to.
func WithFrontendBaseURL(baseURL string) AuthServiceOption {
	return func(s *authService) {
		s.frontendBaseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewAuthService creates a new auth service with the provided options
func NewAuthService(repos portsrepo.RepositoryProvider, tokenIssuer portssvc.TokenIssuerSvc, options ...AuthServiceOption) portssvc.AuthSvcFacade {
	svc := &authService{
		accountRepo:  repos.AccountRepo,
		identityRepo: repos.ExternalIdentityRepo,
		tokenIssuer:  tokenIssuer,
		resolver:     NewExternalIdentityResolver(nil),
		hasher:       NewBcryptHasher(0),
		notifier:     NewLogNotifier(),
		refreshTTL:   defaultRefreshTokenTTL,
		resetTTL:     defaultResetTokenTTL,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) link(path, token string) string {
	return s.frontendBaseURL + path + "?token=" + url.QueryEscape(token)
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) error {
	email := normalizeEmail(req.Email)

	if _, err := s.accountRepo.FindAccountByEmail(ctx, email); err == nil {
		s.LogInfo(ctx, "Registration rejected, email already in use")
		return apperrors.ErrEmailInUse
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to check email during registration")
		return fmt.Errorf("failed to check email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := s.tokenIssuer.MintOpaqueToken()
	if err != nil {
		s.LogError(ctx, err, "Failed to generate verification token")
		return err
	}
	verificationHash := utils.HashOpaqueToken(verificationToken)

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	now := s.Now()
	account := domain.Account{
		AccountID:                  uuid.NewString(),
		Email:                      email,
		DisplayName:                displayName,
		Role:                       domain.RoleUser,
		PasswordHash:               &passwordHash,
		EmailVerificationTokenHash: &verificationHash,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost a race with a concurrent registration for the same email.
			return apperrors.ErrEmailInUse
		}
		s.LogError(ctx, err, "Failed to save account")
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.LogInfo(ctx, "Account registered", slog.String("account_id", account.AccountID))

	if err := s.notifier.SendEmailVerification(ctx, &account, s.link("/verify-email", verificationToken)); err != nil {
		s.LogError(ctx, err, "Failed to send verification email", slog.String("account_id", account.AccountID))
	}
	return nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*domain.TokenPair, error) {
	account, err := s.accountRepo.FindAccountByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		s.LogError(ctx, err, "Failed to look up account for login")
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if !account.HasPassword() || !s.hasher.Verify(req.Password, *account.PasswordHash) {
		s.LogInfo(ctx, "Login rejected", slog.String("account_id", account.AccountID))
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.openSession(ctx, account)
}

func (s *authService) ExternalLogin(ctx context.Context, req dto.ExternalLoginRequest) (*domain.TokenPair, error) {
	provider := domain.AuthProvider(strings.ToLower(strings.TrimSpace(req.Provider)))
	if s.resolver == nil || !s.resolver.Supports(provider) {
		return nil, apperrors.ErrUnsupportedProvider
	}

	info, err := s.resolver.Resolve(ctx, provider, req.IDToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accountForIdentity(ctx, info)
	if errors.Is(err, apperrors.ErrDuplicate) {
		// A concurrent first login for the same subject or email won; its rows are now visible.
		account, err = s.accountForIdentity(ctx, info)
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve account for external identity",
			slog.String("provider", string(provider)))
		return nil, fmt.Errorf("failed to resolve external account: %w", err)
	}

	return s.openSession(ctx, account)
}

// accountForIdentity finds the account linked to info, links it to an account
// with the same email, or creates a new account, in that order.
func (s *authService) accountForIdentity(ctx context.Context, info *domain.ExternalIdentityInfo) (*domain.Account, error) {
	identity, err := s.identityRepo.FindExternalIdentity(ctx, info.Provider, info.Subject)
	if err == nil {
		return s.accountRepo.FindAccountByID(ctx, identity.AccountID)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := s.Now()
	newIdentity := domain.ExternalIdentity{
		ID:                uuid.NewString(),
		Provider:          info.Provider,
		ProviderSubjectID: info.Subject,
		Email:             info.Email,
		CreatedAt:         now,
	}

	account, err := s.accountRepo.FindAccountByEmail(ctx, info.Email)
	if err == nil {
		newIdentity.AccountID = account.AccountID
		if err := s.identityRepo.LinkExternalIdentity(ctx, newIdentity); err != nil {
			return nil, err
		}
		s.LogInfo(ctx, "Linked external identity to existing account",
			slog.String("account_id", account.AccountID),
			slog.String("provider", string(info.Provider)))
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	displayName := info.DisplayName
	if displayName == "" {
		displayName, _, _ = strings.Cut(info.Email, "@")
	}
	created := domain.Account{
		AccountID:       uuid.NewString(),
		Email:           info.Email,
		DisplayName:     displayName,
		Role:            domain.RoleUser,
		IsEmailVerified: true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}
	if info.AvatarURL != "" {
		avatar := info.AvatarURL
		created.AvatarURL = &avatar
	}
	newIdentity.AccountID = created.AccountID

	if err := s.identityRepo.CreateAccountWithIdentity(ctx, created, newIdentity); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Created account from external identity",
		slog.String("account_id", created.AccountID),
		slog.String("provider", string(info.Provider)))
	return &created, nil
}

// openSession mints a fresh pair and overwrites whatever refresh token the account held.
func (s *authService) openSession(ctx context.Context, account *domain.Account) (*domain.TokenPair, error) {
	pair, refreshHash, err := s.mintPair(account)
	if err != nil {
		s.LogError(ctx, err, "Failed to mint token pair", slog.String("account_id", account.AccountID))
		return nil, err
	}

	if _, err := s.accountRepo.SetRefreshToken(ctx, account.AccountID, refreshHash, s.Now().Add(s.refreshTTL)); err != nil {
		s.LogError(ctx, err, "Failed to store refresh token", slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return pair, nil
}

func (s *authService) mintPair(account *domain.Account) (*domain.TokenPair, string, error) {
	accessToken, expiresAt, err := s.tokenIssuer.MintAccessToken(account)
	if err != nil {
		return nil, "", err
	}
	refreshToken, err := s.tokenIssuer.MintRefreshToken()
	if err != nil {
		return nil, "", err
	}
	return &domain.TokenPair{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         refreshToken,
		AccountID:            account.AccountID,
	}, utils.HashOpaqueToken(refreshToken), nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	account, err := s.accountRepo.FindAccountByRefreshTokenHash(ctx, utils.HashOpaqueToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogInfo(ctx, "Refresh rejected, token unknown or already rotated")
			return nil, apperrors.ErrInvalidRefreshToken
		}
		s.LogError(ctx, err, "Failed to look up refresh token")
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	now := s.Now()
	if account.RefreshTokenExpired(now) {
		s.LogInfo(ctx, "Refresh rejected, token expired", slog.String("account_id", account.AccountID))
		return nil, apperrors.ErrExpiredRefreshToken
	}

	pair, refreshHash, err := s.mintPair(account)
	if err != nil {
		s.LogError(ctx, err, "Failed to mint token pair", slog.String("account_id", account.AccountID))
		return nil, err
	}

	if _, err := s.accountRepo.RotateRefreshToken(ctx, account.AccountID, account.SessionVersion, refreshHash, now.Add(s.refreshTTL)); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			s.LogInfo(ctx, "Refresh lost a concurrent rotation", slog.String("account_id", account.AccountID))
			return nil, apperrors.ErrRefreshConflict
		}
		s.LogError(ctx, err, "Failed to rotate refresh token", slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, accountID string) error {
	if err := s.accountRepo.ClearRefreshToken(ctx, accountID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		s.LogError(ctx, err, "Failed to clear refresh token", slog.String("account_id", accountID))
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	s.LogInfo(ctx, "Session closed", slog.String("account_id", accountID))
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.ErrInvalidVerificationToken
	}
	tokenHash := utils.HashOpaqueToken(token)

	account, err := s.accountRepo.FindAccountByVerificationTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidVerificationToken
		}
		s.LogError(ctx, err, "Failed to look up verification token")
		return fmt.Errorf("failed to look up verification token: %w", err)
	}

	if err := s.accountRepo.MarkEmailVerified(ctx, account.AccountID, tokenHash); err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidVerificationToken
		}
		s.LogError(ctx, err, "Failed to mark email verified", slog.String("account_id", account.AccountID))
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	s.LogInfo(ctx, "Email verified", slog.String("account_id", account.AccountID))
	return nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) {
	account, err := s.accountRepo.FindAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to look up account for verification resend")
		}
		return
	}
	if account.IsEmailVerified {
		return
	}

	token, err := s.tokenIssuer.MintOpaqueToken()
	if err != nil {
		s.LogError(ctx, err, "Failed to generate verification token")
		return
	}
	if err := s.accountRepo.SetVerificationToken(ctx, account.AccountID, utils.HashOpaqueToken(token)); err != nil {
		s.LogError(ctx, err, "Failed to store verification token", slog.String("account_id", account.AccountID))
		return
	}
	if err := s.notifier.SendEmailVerification(ctx, account, s.link("/verify-email", token)); err != nil {
		s.LogError(ctx, err, "Failed to send verification email", slog.String("account_id", account.AccountID))
	}
}

func (s *authService) ForgotPassword(ctx context.Context, email string) {
	account, err := s.accountRepo.FindAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to look up account for password reset")
		}
		return
	}

	token, err := s.tokenIssuer.MintOpaqueToken()
	if err != nil {
		s.LogError(ctx, err, "Failed to generate reset token")
		return
	}
	expiresAt := s.Now().Add(s.resetTTL)
	if err := s.accountRepo.SetPasswordResetToken(ctx, account.AccountID, utils.HashOpaqueToken(token), expiresAt); err != nil {
		s.LogError(ctx, err, "Failed to store reset token", slog.String("account_id", account.AccountID))
		return
	}
	if err := s.notifier.SendPasswordReset(ctx, account, s.link("/reset-password", token), expiresAt); err != nil {
		s.LogError(ctx, err, "Failed to send password reset email", slog.String("account_id", account.AccountID))
		return
	}
	s.LogInfo(ctx, "Password reset issued", slog.String("account_id", account.AccountID))
}

func (s *authService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return apperrors.ErrInvalidResetToken
	}
	tokenHash := utils.HashOpaqueToken(req.Token)

	account, err := s.accountRepo.FindAccountByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		s.LogError(ctx, err, "Failed to look up reset token")
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if account.PasswordResetExpired(s.Now()) {
		s.LogInfo(ctx, "Password reset rejected, token expired", slog.String("account_id", account.AccountID))
		return apperrors.ErrExpiredResetToken
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.CompletePasswordReset(ctx, account.AccountID, tokenHash, passwordHash); err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		s.LogError(ctx, err, "Failed to store new password", slog.String("account_id", account.AccountID))
		return fmt.Errorf("failed to store new password: %w", err)
	}
	s.LogInfo(ctx, "Password reset completed", slog.String("account_id", account.AccountID))
	return nil
}

func (s *authService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}
