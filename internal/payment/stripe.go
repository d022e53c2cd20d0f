package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/zubari-ai/studyaid/pkg/models"
)

// Metadata keys written on every PaymentIntent
const (
	metadataReference = "payment_reference"
	metadataUserID    = "user_id"
	metadataPlan      = "plan"
)

// StripeGateway charges through Stripe PaymentIntents. The client confirms the
// intent with the returned client secret; verification reads the intent back.
type StripeGateway struct{}

// NewStripeGateway configures the Stripe client
func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

// Name implements Gateway
func (g *StripeGateway) Name() string { return "stripe" }

// CreateCharge implements Gateway
func (g *StripeGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(req.Amount)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataReference, req.Reference)
	params.AddMetadata(metadataUserID, strconv.FormatInt(req.UserID, 10))
	params.AddMetadata(metadataPlan, string(req.Plan))

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Charge{GatewayReference: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ChargeStatus implements Gateway
func (g *StripeGateway) ChargeStatus(ctx context.Context, payment *models.Payment) (ChargeStatus, error) {
	if payment.GatewayReference == nil || *payment.GatewayReference == "" {
		return "", errors.New("payment has no payment intent")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(*payment.GatewayReference, params)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	return intentStatus(pi.Status), nil
}

func intentStatus(status stripe.PaymentIntentStatus) ChargeStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return ChargeSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return ChargeFailed
	default:
		return ChargePending
	}
}

// minorUnits converts a whole-unit amount to the smallest currency unit
func minorUnits(amount int64) int64 {
	return amount * 100
}
