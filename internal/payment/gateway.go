// Package payment implements subscription purchases: a pending payment is
// created at initiation and completed once the gateway confirms the charge.
package payment

import (
	"context"

	"github.com/zubari-ai/studyaid/pkg/models"
)

// ChargeStatus is the gateway's view of a charge
type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargePending   ChargeStatus = "pending"
	ChargeFailed    ChargeStatus = "failed"
)

// ChargeRequest describes the charge a new payment needs
type ChargeRequest struct {
	Reference string
	UserID    int64
	Plan      models.PaymentPlan
	Amount    int64
	Currency  string
}

// Charge is what the gateway returns for a new charge
type Charge struct {
	GatewayReference string
	ClientSecret     string
}

// Gateway is an external payment processor
type Gateway interface {
	Name() string
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	ChargeStatus(ctx context.Context, payment *models.Payment) (ChargeStatus, error)
}

// SimulatedGateway confirms every charge. It stands in for a processor in
// development and keeps the verify-by-reference flow usable without one.
type SimulatedGateway struct{}

// Name implements Gateway
func (SimulatedGateway) Name() string { return "simulated" }

// CreateCharge implements Gateway
func (SimulatedGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	return &Charge{}, nil
}

// ChargeStatus implements Gateway
func (SimulatedGateway) ChargeStatus(ctx context.Context, payment *models.Payment) (ChargeStatus, error) {
	return ChargeSucceeded, nil
}
