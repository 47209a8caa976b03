package middleware

import (
	"context"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// claimsCtxKey is the key used to store the verified access token claims.
const claimsCtxKey = contextKey("sessionClaims")

// GetClaimsFromCtx retrieves the claims stored by AuthMiddleware.
func GetClaimsFromCtx(ctx context.Context) (*domain.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsCtxKey).(*domain.SessionClaims)
	return claims, ok && claims != nil
}

// GetUserIDFromContext retrieves the authenticated account ID from the request.
// It returns the ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	claims, ok := GetClaimsFromCtx(c.Request.Context())
	if !ok || claims.AccountID == "" {
		return "", false
	}
	return claims.AccountID, true
}
