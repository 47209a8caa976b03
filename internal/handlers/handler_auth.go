package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/dto"
	"github.com/SscSPs/session_auth_service/internal/middleware"
	"github.com/SscSPs/session_auth_service/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// Generic replies for endpoints that must not reveal whether an email is registered.
const (
	forgotPasswordMessage     = "If an account with that email exists, a password reset link has been sent."
	resendVerificationMessage = "If an unverified account with that email exists, a new verification link has been sent."
)

// AuthHandler handles authentication related requests.
type AuthHandler struct {
	authService portssvc.AuthSvcFacade
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService portssvc.AuthSvcFacade) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"traceID,omitempty"`
}

// respondError writes the client-safe form of err. Errors outside the auth
// taxonomy are logged and reported as a 500 carrying the request id.
func respondError(c *gin.Context, err error, logMsg string) {
	if appErr, ok := apperrors.FromError(err); ok {
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
		return
	}
	ctx := c.Request.Context()
	middleware.GetLoggerFromCtx(ctx).ErrorContext(ctx, logMsg, slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "Internal server error",
		TraceID: middleware.GetRequestIDFromCtx(ctx),
	})
}

// registerAuthRoutes sets up the public authentication routes. The
// credential-guessing endpoints each get their own per-IP rate limit.
func registerAuthRoutes(r *gin.Engine, cfg *config.Config, authService portssvc.AuthSvcFacade) error {
	h := NewAuthHandler(authService)

	ipLimiter, err := middleware.NewIPRateLimiter(cfg.AuthRateLimit)
	if err != nil {
		return err
	}

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", middleware.RateLimit(ipLimiter, "login"), h.Login)
		auth.POST("/external-login", middleware.RateLimit(ipLimiter, "external-login"), h.ExternalLogin)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/forgot-password", middleware.RateLimit(ipLimiter, "forgot-password"), h.ForgotPassword)
		auth.POST("/reset-password", middleware.RateLimit(ipLimiter, "reset-password"), h.ResetPassword)
		auth.GET("/verify-email", h.VerifyEmail)
		auth.POST("/resend-verification", middleware.RateLimit(ipLimiter, "resend-verification"), h.ResendVerification)
	}
	return nil
}

// Register godoc
// @Summary Register new account
// @Description Creates a password account and sends an email verification link.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Registration Info"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid body or email already in use"
// @Failure 500 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	if err := h.authService.Register(c.Request.Context(), req); err != nil {
		respondError(c, err, "Failed to register account")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Registration successful. Please check your email to verify your account.",
	})
}

// Login godoc
// @Summary Password login
// @Description Authenticates with email and password and returns a token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.TokenPairResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	pair, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to log in")
		return
	}
	middleware.SetAnalyticsSubject(c, pair.AccountID)
	c.JSON(http.StatusOK, dto.ToTokenPairResponse(pair))
}

// ExternalLogin godoc
// @Summary External identity login
// @Description Exchanges a provider ID token (e.g. Google) for a token pair, creating or linking the account as needed.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.ExternalLoginRequest true "Provider and ID token"
// @Success 200 {object} dto.TokenPairResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Invalid external token or unsupported provider"
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/external-login [post]
func (h *AuthHandler) ExternalLogin(c *gin.Context) {
	var req dto.ExternalLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	pair, err := h.authService.ExternalLogin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed external login")
		return
	}
	middleware.SetAnalyticsSubject(c, pair.AccountID)
	c.JSON(http.StatusOK, dto.ToTokenPairResponse(pair))
}

// RefreshToken godoc
// @Summary Rotate refresh token
// @Description Exchanges a refresh token for a new token pair. The presented token stops working.
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.TokenPairResponse
// @Failure 400 {object} ErrorResponse "Invalid or expired refresh token"
// @Failure 409 {object} ErrorResponse "Token was rotated by a concurrent request"
// @Failure 500 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	pair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err, "Failed to refresh token")
		return
	}
	middleware.SetAnalyticsSubject(c, pair.AccountID)
	c.JSON(http.StatusOK, dto.ToTokenPairResponse(pair))
}

// ForgotPassword godoc
// @Summary Request password reset
// @Description Sends a reset link if the account exists. The response is identical either way.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.EmailRequest true "Account email"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	h.authService.ForgotPassword(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: forgotPasswordMessage})
}

// ResetPassword godoc
// @Summary Reset password
// @Description Sets a new password using a reset token. Signs out every session of the account.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid or expired reset token"
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, err, "Failed to reset password")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Password has been reset. Please log in with your new password."})
}

// VerifyEmail godoc
// @Summary Verify email address
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid verification token"
// @Failure 500 {object} ErrorResponse
// @Router /auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var params dto.VerifyEmailParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	if err := h.authService.VerifyEmail(c.Request.Context(), params.Token); err != nil {
		respondError(c, err, "Failed to verify email")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Email verified."})
}

// ResendVerification godoc
// @Summary Resend verification email
// @Description Issues a new verification link for an unverified account. The response is identical either way.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.EmailRequest true "Account email"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	h.authService.ResendVerification(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: resendVerificationMessage})
}
