package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/middleware"
	"google.golang.org/api/idtoken"
)

// externalIdentityResolver dispatches identity assertions to per-provider
// validators. Adding a provider means registering a validator; the auth
// flows do not change.
type externalIdentityResolver struct {
	validators map[domain.AuthProvider]portssvc.IdentityTokenValidator
}

// NewExternalIdentityResolver creates a resolver over the given validators.
func NewExternalIdentityResolver(validators map[domain.AuthProvider]portssvc.IdentityTokenValidator) portssvc.ExternalIdentityResolverSvc {
	copied := make(map[domain.AuthProvider]portssvc.IdentityTokenValidator, len(validators))
	for provider, v := range validators {
		if v != nil {
			copied[provider] = v
		}
	}
	return &externalIdentityResolver{validators: copied}
}

func (r *externalIdentityResolver) Supports(provider domain.AuthProvider) bool {
	_, ok := r.validators[provider]
	return ok
}

func (r *externalIdentityResolver) Resolve(ctx context.Context, provider domain.AuthProvider, idToken string) (*domain.ExternalIdentityInfo, error) {
	validator, ok := r.validators[provider]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", provider, apperrors.ErrUnsupportedProvider)
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("empty identity token: %w", apperrors.ErrInvalidExternalToken)
	}

	info, err := validator.Validate(ctx, idToken)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).WarnContext(ctx, "External identity token rejected",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()))
		if errors.Is(err, apperrors.ErrInvalidExternalToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", err.Error(), apperrors.ErrInvalidExternalToken)
	}
	if info.Subject == "" || info.Email == "" {
		return nil, fmt.Errorf("identity token lacks subject or email: %w", apperrors.ErrInvalidExternalToken)
	}

	info.Provider = provider
	info.Email = normalizeEmail(info.Email)
	return info, nil
}

// IDTokenValidateFunc matches idtoken.Validate.
type IDTokenValidateFunc func(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)

// googleIDTokenValidator checks Google-issued ID tokens against the configured client ID.
type googleIDTokenValidator struct {
	clientID string
	validate IDTokenValidateFunc
}

// NewGoogleIDTokenValidator returns a validator for Google ID tokens. A nil
// validate uses idtoken.Validate, which checks signature, expiry and audience.
func NewGoogleIDTokenValidator(clientID string, validate IDTokenValidateFunc) portssvc.IdentityTokenValidator {
	if validate == nil {
		validate = idtoken.Validate
	}
	return &googleIDTokenValidator{clientID: clientID, validate: validate}
}

func (g *googleIDTokenValidator) Validate(ctx context.Context, idTokenString string) (*domain.ExternalIdentityInfo, error) {
	if g.clientID == "" {
		return nil, errors.New("google client ID is not configured in the application")
	}

	payload, err := g.validate(ctx, idTokenString, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("google ID token validation failed: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	// Accounts are linked by email, so only a provider-verified email may be trusted.
	if !emailVerified {
		return nil, fmt.Errorf("google account email is not verified: %w", apperrors.ErrInvalidExternalToken)
	}

	return &domain.ExternalIdentityInfo{
		Provider:      domain.ProviderGoogle,
		Subject:       payload.Subject,
		Email:         email,
		EmailVerified: emailVerified,
		DisplayName:   name,
		AvatarURL:     picture,
	}, nil
}
