package services

import (
	"log/slog"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portsrepo "github.com/SscSPs/session_auth_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.TokenIssuer = NewTokenIssuer(cfg)

	validators := map[domain.AuthProvider]portssvc.IdentityTokenValidator{}
	if cfg.GoogleClientID != "" {
		validators[domain.ProviderGoogle] = NewGoogleIDTokenValidator(cfg.GoogleClientID, nil)
	}

	var notifier portssvc.Notifier
	if cfg.SMTP.Host != "" {
		notifier = NewSMTPNotifier(cfg.SMTP, nil)
	} else {
		slog.Warn("SMTP_HOST not set, verification and reset links will only be logged")
		notifier = NewLogNotifier()
	}

	container.Auth = NewAuthService(repos, container.TokenIssuer,
		WithExternalIdentityResolver(NewExternalIdentityResolver(validators)),
		WithNotifier(notifier),
		WithRefreshTokenTTL(cfg.RefreshTokenExpiryDuration),
		WithResetTokenTTL(cfg.PasswordResetExpiryDuration),
		WithFrontendBaseURL(cfg.FrontendBaseURL),
	)

	return container
}
