package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/core/services"
	"github.com/SscSPs/session_auth_service/internal/dto"
	"github.com/SscSPs/session_auth_service/internal/handlers"
	"github.com/SscSPs/session_auth_service/internal/platform/config"
	"github.com/SscSPs/session_auth_service/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Mock AuthService ---
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req dto.LoginRequest) (*domain.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

func (m *MockAuthService) ExternalLogin(ctx context.Context, req dto.ExternalLoginRequest) (*domain.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockAuthService) Register(ctx context.Context, req dto.RegisterRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) {
	m.Called(ctx, email)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) {
	m.Called(ctx, email)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

var _ portssvc.AuthSvcFacade = (*MockAuthService)(nil)

func testConfig() *config.Config {
	return &config.Config{
		IsProduction:                true,
		JWTSecret:                   "test-secret-key-that-is-long-enough",
		JWTIssuer:                   "test-issuer",
		JWTExpiryDuration:           15 * time.Minute,
		RefreshTokenExpiryDuration:  24 * time.Hour,
		PasswordResetExpiryDuration: time.Hour,
		FrontendBaseURL:             "https://app.example.com",
		AuthRateLimit:               "1000-M",
	}
}

func doJSON(router http.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// --- Handler tests against a mocked service ---
type AuthHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockAuth    *MockAuthService
	tokenIssuer portssvc.TokenIssuerSvc
}

func (suite *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	suite.mockAuth = new(MockAuthService)
	suite.tokenIssuer = services.NewTokenIssuer(cfg)
	suite.router = gin.New()
	err := handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{
		Auth:        suite.mockAuth,
		TokenIssuer: suite.tokenIssuer,
	})
	suite.Require().NoError(err)
}

func (suite *AuthHandlerTestSuite) TestErrorTaxonomyStatusCodes() {
	cases := []struct {
		err  error
		code int
	}{
		{apperrors.ErrInvalidRefreshToken, http.StatusBadRequest},
		{apperrors.ErrExpiredRefreshToken, http.StatusBadRequest},
		{apperrors.ErrRefreshConflict, http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		suite.mockAuth.On("RefreshToken", mock.Anything, "rt-1").Return(nil, tc.err).Once()

		w := doJSON(suite.router, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "rt-1"}, "")

		suite.Equal(tc.code, w.Code, "error %v", tc.err)
		var resp handlers.ErrorResponse
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		if tc.code == http.StatusInternalServerError {
			suite.Equal("Internal server error", resp.Error)
			suite.NotContains(w.Body.String(), assert.AnError.Error())
		} else {
			suite.Equal(tc.err.Error(), resp.Error)
		}
	}
	suite.mockAuth.AssertExpectations(suite.T())
}

func (suite *AuthHandlerTestSuite) TestLogin_Success() {
	expires := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)
	req := dto.LoginRequest{Email: "alice@example.com", Password: "correct-horse-1"}
	suite.mockAuth.On("Login", mock.Anything, req).Return(&domain.TokenPair{
		AccessToken:          "at",
		AccessTokenExpiresAt: expires,
		RefreshToken:         "rt",
		AccountID:            "acc-1",
	}, nil).Once()

	w := doJSON(suite.router, http.MethodPost, "/auth/login", req, "")

	suite.Require().Equal(http.StatusOK, w.Code)
	var resp dto.TokenPairResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("at", resp.AccessToken)
	suite.Equal("rt", resp.RefreshToken)
	suite.Equal("Bearer", resp.TokenType)
	suite.True(expires.Equal(resp.AccessTokenExpiresAt))
	suite.mockAuth.AssertExpectations(suite.T())
}

func (suite *AuthHandlerTestSuite) TestLogin_InvalidCredentials() {
	suite.mockAuth.On("Login", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidCredentials).Once()

	w := doJSON(suite.router, http.MethodPost, "/auth/login", dto.LoginRequest{Email: "alice@example.com", Password: "nope"}, "")

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AuthHandlerTestSuite) TestRegister_ValidationErrors() {
	w := doJSON(suite.router, http.MethodPost, "/auth/register", map[string]string{"email": "not-an-email", "password": "short"}, "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Email must be a valid email address")
	suite.Contains(w.Body.String(), "Password must be 8-72 characters")
	suite.NotContains(w.Body.String(), "short")
	suite.mockAuth.AssertNotCalled(suite.T(), "Register", mock.Anything, mock.Anything)
}

func (suite *AuthHandlerTestSuite) TestRegister_EmailInUse() {
	suite.mockAuth.On("Register", mock.Anything, mock.Anything).Return(apperrors.ErrEmailInUse).Once()

	w := doJSON(suite.router, http.MethodPost, "/auth/register", dto.RegisterRequest{Email: "alice@example.com", Password: "correct-horse-1"}, "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), apperrors.ErrEmailInUse.Error())
}

func (suite *AuthHandlerTestSuite) TestForgotPassword_ResponseDoesNotRevealAccount() {
	suite.mockAuth.On("ForgotPassword", mock.Anything, "alice@example.com").Return().Once()
	suite.mockAuth.On("ForgotPassword", mock.Anything, "nobody@example.com").Return().Once()

	known := doJSON(suite.router, http.MethodPost, "/auth/forgot-password", dto.EmailRequest{Email: "alice@example.com"}, "")
	unknown := doJSON(suite.router, http.MethodPost, "/auth/forgot-password", dto.EmailRequest{Email: "nobody@example.com"}, "")

	suite.Equal(http.StatusOK, known.Code)
	suite.Equal(known.Code, unknown.Code)
	suite.Equal(known.Body.Bytes(), unknown.Body.Bytes())
	suite.mockAuth.AssertExpectations(suite.T())
}

func (suite *AuthHandlerTestSuite) TestVerifyEmail() {
	suite.mockAuth.On("VerifyEmail", mock.Anything, "good").Return(nil).Once()
	suite.mockAuth.On("VerifyEmail", mock.Anything, "used").Return(apperrors.ErrInvalidVerificationToken).Once()

	ok := doJSON(suite.router, http.MethodGet, "/auth/verify-email?token=good", nil, "")
	bad := doJSON(suite.router, http.MethodGet, "/auth/verify-email?token=used", nil, "")
	missing := doJSON(suite.router, http.MethodGet, "/auth/verify-email", nil, "")

	suite.Equal(http.StatusOK, ok.Code)
	suite.Equal(http.StatusBadRequest, bad.Code)
	suite.Equal(http.StatusBadRequest, missing.Code)
}

func (suite *AuthHandlerTestSuite) TestMe_RequiresBearerToken() {
	w := doJSON(suite.router, http.MethodGet, "/api/v1/me", nil, "")
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = doJSON(suite.router, http.MethodGet, "/api/v1/me", nil, "garbage")
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockAuth.AssertNotCalled(suite.T(), "GetAccount", mock.Anything, mock.Anything)
}

func (suite *AuthHandlerTestSuite) TestMe_Success() {
	account := &domain.Account{AccountID: "acc-1", Email: "alice@example.com", DisplayName: "Alice", Role: domain.RoleUser}
	token, _, err := suite.tokenIssuer.MintAccessToken(account)
	suite.Require().NoError(err)
	suite.mockAuth.On("GetAccount", mock.Anything, "acc-1").Return(account, nil).Once()

	w := doJSON(suite.router, http.MethodGet, "/api/v1/me", nil, token)

	suite.Require().Equal(http.StatusOK, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("acc-1", resp.AccountID)
	suite.Equal("User", resp.Role)
	suite.False(resp.HasPassword)
}

func (suite *AuthHandlerTestSuite) TestLogout() {
	token, _, err := suite.tokenIssuer.MintAccessToken(&domain.Account{AccountID: "acc-1", Role: domain.RoleUser})
	suite.Require().NoError(err)
	suite.mockAuth.On("Logout", mock.Anything, "acc-1").Return(nil).Once()

	w := doJSON(suite.router, http.MethodPost, "/api/v1/auth/logout", nil, token)

	suite.Equal(http.StatusNoContent, w.Code)
	suite.mockAuth.AssertExpectations(suite.T())
}

func (suite *AuthHandlerTestSuite) TestHealth() {
	w := doJSON(suite.router, http.MethodGet, "/health", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func TestAuthHandler(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

// --- End-to-end through the in-memory store ---
func TestSessionLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	container := services.NewServiceContainer(cfg, memory.NewRepositoryProvider(memory.NewStore()))
	router := gin.New()
	require.NoError(t, handlers.RegisterRoutes(router, cfg, container))

	w := doJSON(router, http.MethodPost, "/auth/register", dto.RegisterRequest{Email: "Alice@Example.com", Password: "correct-horse-1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/auth/login", dto.LoginRequest{Email: "alice@example.com", Password: "correct-horse-1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))

	w = doJSON(router, http.MethodGet, "/api/v1/me", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var me dto.AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "alice@example.com", me.Email)
	assert.True(t, me.HasPassword)

	w = doJSON(router, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var rotated dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old refresh token is spent.
	w = doJSON(router, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: pair.RefreshToken}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/auth/logout", nil, rotated.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: rotated.RefreshToken}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/external-login", dto.ExternalLoginRequest{Provider: "google", IDToken: "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.AuthRateLimit = "2-M"
	mockAuth := new(MockAuthService)
	mockAuth.On("Login", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidCredentials)
	router := gin.New()
	require.NoError(t, handlers.RegisterRoutes(router, cfg, &portssvc.ServiceContainer{
		Auth:        mockAuth,
		TokenIssuer: services.NewTokenIssuer(cfg),
	}))

	body := dto.LoginRequest{Email: "alice@example.com", Password: "wrong-pass-1"}
	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodPost, "/auth/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodPost, "/auth/login", body, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(router, http.MethodPost, "/auth/login", body, "").Code)

	// Limits are per endpoint.
	mockAuth.On("ForgotPassword", mock.Anything, mock.Anything).Return()
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/auth/forgot-password", dto.EmailRequest{Email: "alice@example.com"}, "").Code)
}
