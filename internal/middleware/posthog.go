package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/session_auth_service/internal/utils"
	"github.com/gin-gonic/gin"
)

// analyticsSubjectKey holds the account id a public auth handler resolved,
// for requests that carry no bearer token.
const analyticsSubjectKey = "analyticsSubject"

// pathsToSkip contains paths that should not be tracked by PostHog
var pathsToSkip = map[string]bool{
	"/health": true,
}

// SetAnalyticsSubject records which account a public endpoint acted on.
func SetAnalyticsSubject(c *gin.Context, accountID string) {
	c.Set(analyticsSubjectKey, accountID)
}

// PosthogMiddleware creates a Gin middleware handler that tracks successful
// auth events with PostHog, e.g. "/auth/login" -> "auth_login".
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !posthogClient.IsInitialized() || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		subject := c.GetString(analyticsSubjectKey)
		if subject == "" {
			if userID, ok := GetUserIDFromContext(c); ok {
				subject = userID
			}
		}
		if subject == "" {
			return
		}

		eventName := strings.TrimPrefix(c.FullPath(), "/")
		eventName = strings.NewReplacer("/", "_", "-", "_").Replace(eventName)
		if eventName == "" {
			return
		}

		posthogClient.Enqueue(subject, eventName, map[string]any{
			"method":      c.Request.Method,
			"status_code": c.Writer.Status(),
		})
	}
}
