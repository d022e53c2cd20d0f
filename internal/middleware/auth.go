package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zubari-ai/studyaid/internal/auth"
	"github.com/zubari-ai/studyaid/internal/logging"
)

const (
	AuthContextKey = "user_id"
)

// Authenticator resolves a session token to a user id
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// TokenFromRequest returns the session token from the session cookie, falling
// back to an "Authorization: Bearer" header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	return ""
}

// SessionAuth rejects requests without a live session and stores the user id
// in the gin context
func SessionAuth(authenticator Authenticator, cookieName string, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)

		userID, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
				return
			}
			logger.WithError(err).Error("Session lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(AuthContextKey, userID)
		c.Next()
	}
}

// GetUserID retrieves the user ID from the context
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(AuthContextKey)
	if !exists {
		return 0, false
	}

	id, ok := userID.(int64)
	return id, ok
}
