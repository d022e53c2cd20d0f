package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zubari-ai/studyaid/internal/auth"
	"github.com/zubari-ai/studyaid/internal/metrics"
	"github.com/zubari-ai/studyaid/internal/middleware"
	"github.com/zubari-ai/studyaid/internal/queue"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/signup
func (api *API) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password required")
		return
	}

	session, err := api.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		api.respondError(c, err)
		return
	}

	metrics.RecordSession("signup")
	api.publish(c, queue.NewEvent(queue.EventUserSignedUp, session.UserID, nil))
	api.setSessionCookie(c, session)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": session.Token})
}

// POST /api/login
func (api *API) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password required")
		return
	}

	session, err := api.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		api.respondError(c, err)
		return
	}

	metrics.RecordSession("login")
	api.setSessionCookie(c, session)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": session.Token})
}

// POST /api/logout always succeeds and clears the cookie
func (api *API) logout(c *gin.Context) {
	token := middleware.TokenFromRequest(c, api.cookie.Name)
	if err := api.auth.Logout(c.Request.Context(), token); err != nil {
		api.logger.WithError(err).Warn("Failed to delete session on logout")
	}

	metrics.RecordSession("logout")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(api.cookie.Name, "", -1, "/", "", api.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/user-status
func (api *API) userStatus(c *gin.Context) {
	status, err := api.status.Status(c.Request.Context(), currentUser(c))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (api *API) setSessionCookie(c *gin.Context, session *auth.Session) {
	maxAge := int(api.cookie.TTL.Seconds())
	if !session.ExpiresAt.IsZero() {
		maxAge = int(time.Until(session.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(api.cookie.Name, session.Token, maxAge, "/", "", api.cookie.Secure, true)
}

// GET /health
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	for _, check := range api.health {
		if err := check.Check(ctx); err != nil {
			api.logger.WithError(err).WithField("dependency", check.Name).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "unhealthy",
				"dependency": check.Name,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (api *API) publish(c *gin.Context, event queue.Event) {
	if api.events == nil {
		return
	}
	if err := api.events.Publish(c.Request.Context(), event); err != nil {
		metrics.RecordError("queue", "publish")
		api.logger.WithUserID(event.UserID).WithError(err).Warn("Failed to publish event")
	}
}
