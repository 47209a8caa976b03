package services_test

import (
	"testing"
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	"github.com/SscSPs/session_auth_service/internal/core/services"
	"github.com/SscSPs/session_auth_service/internal/platform/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuerConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret-key-with-enough-length",
		JWTIssuer:         "test-issuer",
		JWTExpiryDuration: 15 * time.Minute,
	}
}

func TestTokenIssuer_MintAndParseAccessToken(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	issuer := services.NewTokenIssuer(testIssuerConfig(), services.WithTokenIssuerClock(func() time.Time { return now }))
	account := &domain.Account{AccountID: "acc-1", Email: "alice@example.com", Role: domain.RoleAdmin}

	token, expiresAt, err := issuer.MintAccessToken(account)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), expiresAt)

	claims, err := issuer.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.True(t, claims.IssuedAt.Equal(now))
	assert.True(t, claims.ExpiresAt.Equal(expiresAt))
}

func TestTokenIssuer_MintAccessTokenRequiresAccountID(t *testing.T) {
	issuer := services.NewTokenIssuer(testIssuerConfig())

	_, _, err := issuer.MintAccessToken(&domain.Account{})
	assert.Error(t, err)
	_, _, err = issuer.MintAccessToken(nil)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	clock := now
	issuer := services.NewTokenIssuer(testIssuerConfig(), services.WithTokenIssuerClock(func() time.Time { return clock }))

	token, _, err := issuer.MintAccessToken(&domain.Account{AccountID: "acc-1", Role: domain.RoleUser})
	require.NoError(t, err)

	clock = now.Add(16 * time.Minute)
	_, err = issuer.ParseAccessToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenIssuer_RejectsForeignTokens(t *testing.T) {
	issuer := services.NewTokenIssuer(testIssuerConfig())
	account := &domain.Account{AccountID: "acc-1", Role: domain.RoleUser}

	otherSecret := testIssuerConfig()
	otherSecret.JWTSecret = "a-different-secret-entirely-0000"
	forged, _, err := services.NewTokenIssuer(otherSecret).MintAccessToken(account)
	require.NoError(t, err)
	_, err = issuer.ParseAccessToken(forged)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	otherIssuer := testIssuerConfig()
	otherIssuer.JWTIssuer = "someone-else"
	foreign, _, err := services.NewTokenIssuer(otherIssuer).MintAccessToken(account)
	require.NoError(t, err)
	_, err = issuer.ParseAccessToken(foreign)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "acc-1", "iss": "test-issuer"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ParseAccessToken(none)
	assert.Error(t, err)
}

func TestTokenIssuer_OpaqueTokensAreRandom(t *testing.T) {
	issuer := services.NewTokenIssuer(testIssuerConfig())

	a, err := issuer.MintRefreshToken()
	require.NoError(t, err)
	b, err := issuer.MintRefreshToken()
	require.NoError(t, err)
	c, err := issuer.MintOpaqueToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
}
