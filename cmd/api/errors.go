package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zubari-ai/studyaid/internal/auth"
	"github.com/zubari-ai/studyaid/internal/generation"
	"github.com/zubari-ai/studyaid/internal/middleware"
	"github.com/zubari-ai/studyaid/internal/payment"
	"github.com/zubari-ai/studyaid/internal/quota"
)

// respondError maps domain errors to status codes. Unknown errors are logged
// and reported generically.
func (api *API) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
	case errors.Is(err, auth.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, auth.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	case errors.Is(err, quota.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, quota.ErrQuotaExceeded):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":           "Free tier limit reached. Please upgrade to premium.",
			"requiresUpgrade": true,
		})
	case errors.Is(err, generation.ErrEmptyNotes):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide study notes"})
	case errors.Is(err, payment.ErrInvalidPlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription type"})
	case errors.Is(err, payment.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	case errors.Is(err, payment.ErrPaymentPending):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment not yet confirmed"})
	case errors.Is(err, payment.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment failed"})
	case errors.Is(err, payment.ErrGateway):
		api.logger.WithError(err).Error("Payment gateway error")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable"})
	default:
		api.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// currentUser returns the authenticated user id set by SessionAuth
func currentUser(c *gin.Context) int64 {
	userID, _ := middleware.GetUserID(c)
	return userID
}
