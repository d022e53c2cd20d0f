package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zubari-ai/studyaid/internal/config"
	"github.com/zubari-ai/studyaid/internal/database"
	"github.com/zubari-ai/studyaid/internal/logging"
	"github.com/zubari-ai/studyaid/internal/metrics"
	"github.com/zubari-ai/studyaid/internal/queue"
	"github.com/zubari-ai/studyaid/internal/tracing"
	"github.com/zubari-ai/studyaid/pkg/models"
)

var (
	// ErrInvalidPlan is returned for a subscription type that is not sold
	ErrInvalidPlan = errors.New("invalid subscription type")
	// ErrPaymentNotFound is returned when no payment matches the reference and owner
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentPending is returned while the gateway has not confirmed the charge
	ErrPaymentPending = errors.New("payment not yet confirmed")
	// ErrPaymentFailed is returned once a payment has reached the failed state
	ErrPaymentFailed = errors.New("payment failed")
	// ErrGateway wraps failures talking to the payment gateway
	ErrGateway = errors.New("payment gateway error")
)

// ReferencePrefix starts every payment reference
const ReferencePrefix = "ZUB_"

// Store is the payment persistence the service needs
type Store interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentForUser(ctx context.Context, reference string, userID int64) (*models.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	CompletePayment(ctx context.Context, paymentID, userID int64, expiresAt time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, paymentID int64) (bool, error)
}

// Initiation is returned to the client to continue at the gateway
type Initiation struct {
	Reference    string
	Amount       int64
	Currency     string
	PublicKey    string
	ClientSecret string
}

// Service runs the payment state machine: pending to completed or failed
type Service struct {
	store         Store
	gateway       Gateway
	events        queue.Publisher
	logger        *logging.Logger
	amounts       map[models.PaymentPlan]int64
	currency      string
	publicKey     string
	webhookSecret string
	timeout       time.Duration
	now           func() time.Time
}

// NewService creates a payment service
func NewService(store Store, gateway Gateway, events queue.Publisher, cfg config.PaymentConfig, logger *logging.Logger) *Service {
	if events == nil {
		events = queue.NoopPublisher{}
	}
	currency := cfg.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	return &Service{
		store:   store,
		gateway: gateway,
		events:  events,
		logger:  logger,
		amounts: map[models.PaymentPlan]int64{
			models.PlanMonthly: cfg.MonthlyAmount,
			models.PlanYearly:  cfg.YearlyAmount,
		},
		currency:      currency,
		publicKey:     cfg.PublicKey,
		webhookSecret: cfg.StripeWebhookSecret,
		timeout:       cfg.Timeout,
		now:           time.Now,
	}
}

// Initiate records a pending payment for plan and opens the charge at the gateway
func (s *Service) Initiate(ctx context.Context, userID int64, plan models.PaymentPlan) (*Initiation, error) {
	if !plan.Valid() {
		return nil, ErrInvalidPlan
	}

	span, ctx := tracing.StartSpan(ctx, "payment.initiate")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "plan", string(plan))

	payment := &models.Payment{
		UserID:           userID,
		Amount:           s.amounts[plan],
		Currency:         s.currency,
		SubscriptionType: plan,
		Reference:        newReference(),
	}

	gctx, cancel := s.gatewayContext(ctx)
	charge, err := s.gateway.CreateCharge(gctx, ChargeRequest{
		Reference: payment.Reference,
		UserID:    userID,
		Plan:      plan,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	})
	cancel()
	if err != nil {
		tracing.LogError(span, err)
		metrics.RecordError("payment", "gateway")
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if charge.GatewayReference != "" {
		payment.GatewayReference = &charge.GatewayReference
	}

	if err := s.store.CreatePayment(ctx, payment); err != nil {
		tracing.LogError(span, err)
		return nil, err
	}

	metrics.RecordPayment(string(plan), string(models.PaymentStatusPending))
	s.logger.LogPaymentEvent(payment.Reference, "initiated", userID, map[string]interface{}{
		"plan":    string(plan),
		"amount":  payment.Amount,
		"gateway": s.gateway.Name(),
	})
	s.publish(ctx, queue.EventPaymentInitiated, payment)

	return &Initiation{
		Reference:    payment.Reference,
		Amount:       payment.Amount,
		Currency:     payment.Currency,
		PublicKey:    s.publicKey,
		ClientSecret: charge.ClientSecret,
	}, nil
}

// Verify completes the caller's payment once the gateway confirms it. Verifying
// an already completed payment succeeds without extending the subscription.
func (s *Service) Verify(ctx context.Context, userID int64, reference string) (*models.Payment, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrPaymentNotFound
	}

	span, ctx := tracing.StartSpan(ctx, "payment.verify")
	defer tracing.FinishSpan(span)

	payment, err := s.store.GetPaymentForUser(ctx, reference, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	switch payment.Status {
	case models.PaymentStatusCompleted:
		return payment, nil
	case models.PaymentStatusFailed:
		return nil, ErrPaymentFailed
	}

	gctx, cancel := s.gatewayContext(ctx)
	status, err := s.gateway.ChargeStatus(gctx, payment)
	cancel()
	if err != nil {
		tracing.LogError(span, err)
		metrics.RecordError("payment", "gateway")
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	switch status {
	case ChargeSucceeded:
		return s.complete(ctx, payment)
	case ChargeFailed:
		if err := s.fail(ctx, payment); err != nil {
			return nil, err
		}
		return nil, ErrPaymentFailed
	default:
		return nil, ErrPaymentPending
	}
}

// complete applies the upgrade. A payment that was no longer pending is
// reloaded so a concurrent completion still reports success.
func (s *Service) complete(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	expiresAt := payment.SubscriptionType.ExpiresAt(s.now())

	completed, err := s.store.CompletePayment(ctx, payment.ID, payment.UserID, expiresAt)
	if err != nil {
		return nil, err
	}

	if !completed {
		current, err := s.store.GetPaymentByReference(ctx, payment.Reference)
		if err != nil {
			return nil, err
		}
		if current.Status != models.PaymentStatusCompleted {
			return nil, ErrPaymentFailed
		}
		return current, nil
	}

	payment.Status = models.PaymentStatusCompleted
	metrics.RecordPayment(string(payment.SubscriptionType), string(models.PaymentStatusCompleted))
	s.logger.LogPaymentEvent(payment.Reference, "completed", payment.UserID, map[string]interface{}{
		"plan":       string(payment.SubscriptionType),
		"expires_at": expiresAt,
	})
	s.publish(ctx, queue.EventPaymentCompleted, payment)

	return payment, nil
}

func (s *Service) fail(ctx context.Context, payment *models.Payment) error {
	failed, err := s.store.MarkPaymentFailed(ctx, payment.ID)
	if err != nil {
		return err
	}
	if !failed {
		return nil
	}

	payment.Status = models.PaymentStatusFailed
	metrics.RecordPayment(string(payment.SubscriptionType), string(models.PaymentStatusFailed))
	s.logger.LogPaymentEvent(payment.Reference, "failed", payment.UserID, nil)
	s.publish(ctx, queue.EventPaymentFailed, payment)
	return nil
}

func (s *Service) gatewayContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) publish(ctx context.Context, eventType string, payment *models.Payment) {
	event := queue.NewEvent(eventType, payment.UserID, map[string]interface{}{
		"reference": payment.Reference,
		"plan":      string(payment.SubscriptionType),
		"amount":    payment.Amount,
		"currency":  payment.Currency,
	})
	if err := s.events.Publish(ctx, event); err != nil {
		metrics.RecordError("queue", "publish")
		s.logger.WithUserID(payment.UserID).WithError(err).Warn("Failed to publish payment event")
	}
}

func newReference() string {
	return ReferencePrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
