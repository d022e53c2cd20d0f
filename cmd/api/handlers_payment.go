package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zubari-ai/studyaid/internal/payment"
	"github.com/zubari-ai/studyaid/pkg/models"
)

// maxWebhookBody caps the webhook payload Stripe may send
const maxWebhookBody = int64(65536)

type initiatePaymentRequest struct {
	SubscriptionType string `json:"subscriptionType"`
}

type verifyPaymentRequest struct {
	PaymentReference string `json:"paymentReference"`
}

// POST /api/initiate-payment
func (api *API) initiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid subscription type")
		return
	}

	started, err := api.payments.Initiate(c.Request.Context(), currentUser(c), models.PaymentPlan(req.SubscriptionType))
	if err != nil {
		api.respondError(c, err)
		return
	}

	resp := gin.H{
		"success":          true,
		"paymentReference": started.Reference,
		"amount":           started.Amount,
		"currency":         started.Currency,
		"publicKey":        started.PublicKey,
	}
	if started.ClientSecret != "" {
		resp["clientSecret"] = started.ClientSecret
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/verify-payment
func (api *API) verifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PaymentReference == "" {
		badRequest(c, "Payment reference required")
		return
	}

	if _, err := api.payments.Verify(c.Request.Context(), currentUser(c), req.PaymentReference); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /api/payments/webhook receives signed Stripe events
func (api *API) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "Failed to read body")
		return
	}

	err = api.payments.HandleStripeEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, payment.ErrInvalidSignature), errors.Is(err, payment.ErrInvalidEvent):
		api.logger.WithError(err).Warn("Rejected stripe webhook")
		badRequest(c, "Invalid webhook")
	case errors.Is(err, payment.ErrWebhookNotConfigured):
		api.logger.Error("Stripe webhook received but no signing secret is configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook not configured"})
	default:
		api.logger.WithError(err).Error("Failed to process stripe webhook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
