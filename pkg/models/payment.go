package models

import (
	"time"
)

// PaymentPlan is the subscription period a payment buys
type PaymentPlan string

const (
	PlanMonthly PaymentPlan = "monthly"
	PlanYearly  PaymentPlan = "yearly"
)

// PaymentStatus represents the state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// DefaultCurrency is the currency payments are tagged with unless configured otherwise
const DefaultCurrency = "KES"

// Payment is one initiated subscription purchase
type Payment struct {
	ID               int64         `json:"id" db:"id"`
	UserID           int64         `json:"user_id" db:"user_id"`
	Amount           int64         `json:"amount" db:"amount"`
	Currency         string        `json:"currency" db:"currency"`
	SubscriptionType PaymentPlan   `json:"subscription_type" db:"subscription_type"`
	Reference        string        `json:"payment_reference" db:"payment_reference"`
	GatewayReference *string       `json:"gateway_reference,omitempty" db:"gateway_reference"`
	Status           PaymentStatus `json:"status" db:"status"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// Valid reports whether the plan is one we sell
func (p PaymentPlan) Valid() bool {
	return p == PlanMonthly || p == PlanYearly
}

// Period returns how long a completed payment keeps the user premium
func (p PaymentPlan) Period() time.Duration {
	if p == PlanMonthly {
		return 30 * 24 * time.Hour
	}
	return 365 * 24 * time.Hour
}

// ExpiresAt is the subscription expiry for a payment completed at now
func (p PaymentPlan) ExpiresAt(now time.Time) time.Time {
	return now.Add(p.Period())
}

// IsTerminal reports whether no further transition is possible
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}
