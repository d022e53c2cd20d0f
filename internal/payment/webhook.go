package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/zubari-ai/studyaid/internal/database"
)

var (
	// ErrWebhookNotConfigured is returned when no signing secret is set
	ErrWebhookNotConfigured = errors.New("webhook not configured")
	// ErrInvalidSignature is returned when the Stripe-Signature check fails
	ErrInvalidSignature = errors.New("signature verification failed")
	// ErrInvalidEvent is returned for a signed event whose payload cannot be used
	ErrInvalidEvent = errors.New("invalid event payload")
)

// HandleStripeEvent verifies a signed Stripe webhook and applies
// payment_intent.succeeded and payment_intent.payment_failed to the payment
// named in the intent metadata. Other event types are acknowledged and ignored.
func (s *Service) HandleStripeEvent(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		return ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		s.logger.WithField("event_type", string(event.Type)).Debug("Ignoring stripe event")
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	reference := pi.Metadata[metadataReference]
	if reference == "" {
		return fmt.Errorf("%w: missing %s metadata", ErrInvalidEvent, metadataReference)
	}

	payment, err := s.store.GetPaymentByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// not ours; acknowledge so Stripe stops retrying
			s.logger.WithField("reference", reference).Warn("Stripe event for unknown payment")
			return nil
		}
		return err
	}

	if payment.Status.IsTerminal() {
		return nil
	}

	if event.Type == "payment_intent.succeeded" {
		_, err = s.complete(ctx, payment)
		if errors.Is(err, ErrPaymentFailed) {
			return nil
		}
		return err
	}

	return s.fail(ctx, payment)
}
