package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/dto"
	"github.com/SscSPs/session_auth_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler serves the authenticated account endpoints.
type accountHandler struct {
	authService portssvc.AuthSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(authService portssvc.AuthSvcFacade) *accountHandler {
	return &accountHandler{authService: authService}
}

// registerAccountRoutes registers routes that act on the caller's own account.
func registerAccountRoutes(rg *gin.RouterGroup, authService portssvc.AuthSvcFacade) {
	h := newAccountHandler(authService)

	rg.GET("/me", h.getMe)
	rg.POST("/auth/logout", h.logout)
}

// getMe godoc
// @Summary Current account
// @Description Returns the account identified by the bearer token.
// @Tags accounts
// @Produce json
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Account no longer exists"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/v1/me [get]
func (h *accountHandler) getMe(c *gin.Context) {
	accountID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Account ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	account, err := h.authService.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Account not found"})
			return
		}
		respondError(c, err, "Failed to get account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// logout godoc
// @Summary Log out
// @Description Revokes the account's refresh token. Access tokens already issued stay valid until they expire.
// @Tags auth
// @Success 204 "No Content"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/v1/auth/logout [post]
func (h *accountHandler) logout(c *gin.Context) {
	accountID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}
	if err := h.authService.Logout(c.Request.Context(), accountID); err != nil {
		respondError(c, err, "Failed to log out")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Account logged out", slog.String("account_id", accountID))
	c.Status(http.StatusNoContent)
}
