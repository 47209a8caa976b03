package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/platform/config"
	"github.com/SscSPs/session_auth_service/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the JWT body of an access token.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// tokenIssuer implements TokenIssuerSvc with HS256 access tokens and random
// opaque refresh tokens.
type tokenIssuer struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// TokenIssuerOption configures a tokenIssuer.
type TokenIssuerOption func(*tokenIssuer)

// WithTokenIssuerClock overrides the clock used for iat/nbf/exp and validation.
func WithTokenIssuerClock(now func() time.Time) TokenIssuerOption {
	return func(t *tokenIssuer) {
		t.now = now
	}
}

// NewTokenIssuer creates a TokenIssuerSvc from the JWT settings in cfg.
func NewTokenIssuer(cfg *config.Config, options ...TokenIssuerOption) portssvc.TokenIssuerSvc {
	t := &tokenIssuer{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		accessTTL: cfg.JWTExpiryDuration,
		now:       time.Now,
	}
	for _, option := range options {
		option(t)
	}
	return t
}

var _ portssvc.TokenIssuerSvc = (*tokenIssuer)(nil)

func (t *tokenIssuer) MintAccessToken(account *domain.Account) (string, time.Time, error) {
	if account == nil || account.AccountID == "" {
		return "", time.Time{}, errors.New("cannot mint access token without an account id")
	}
	now := t.now()
	expiresAt := now.Add(t.accessTTL)
	claims := accessClaims{
		Email: account.Email,
		Role:  string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   account.AccountID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (t *tokenIssuer) MintRefreshToken() (string, error) {
	token, err := utils.GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return token, nil
}

func (t *tokenIssuer) MintOpaqueToken() (string, error) {
	token, err := utils.GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate opaque token: %w", err)
	}
	return token, nil
}

func (t *tokenIssuer) ParseAccessToken(tokenString string) (*domain.SessionClaims, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	out := &domain.SessionClaims{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Role:      domain.Role(claims.Role),
		Issuer:    claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
