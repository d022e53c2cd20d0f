package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/zubari-ai/studyaid/pkg/models"
)

// Payments

const paymentColumns = `id, user_id, amount::bigint, currency, subscription_type::text,
	payment_reference, gateway_reference, status::text, created_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.SubscriptionType,
		&p.Reference, &p.GatewayReference, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment inserts a pending payment
func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (user_id, amount, currency, subscription_type, payment_reference, gateway_reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id, status::text, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		payment.UserID, payment.Amount, payment.Currency, string(payment.SubscriptionType),
		payment.Reference, payment.GatewayReference,
	).Scan(&payment.ID, &payment.Status, &payment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetPaymentForUser finds a payment by reference that belongs to userID
func (r *Repository) GetPaymentForUser(ctx context.Context, reference string, userID int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_reference = $1 AND user_id = $2`

	payment, err := scanPayment(r.db.Pool.QueryRow(ctx, query, reference, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

// GetPaymentByReference finds a payment by reference regardless of owner.
// Only gateway callbacks, which carry no session, use it.
func (r *Repository) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_reference = $1`

	payment, err := scanPayment(r.db.Pool.QueryRow(ctx, query, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

// CompletePayment marks a pending payment completed and upgrades its owner in
// one transaction: premium until expiresAt with the quota counter reset.
// Returns false without changing anything when the payment was no longer
// pending.
func (r *Repository) CompletePayment(ctx context.Context, paymentID, userID int64, expiresAt time.Time) (bool, error) {
	completed := false

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE payments SET status = 'completed'
			WHERE id = $1 AND user_id = $2 AND status = 'pending'
		`, paymentID, userID)
		if err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if r.beforeUpgrade != nil {
			if err := r.beforeUpgrade(ctx, tx); err != nil {
				return err
			}
		}

		tag, err = tx.Exec(ctx, `
			UPDATE users
			SET subscription_type = 'premium', subscription_expires = $1, ai_requests_used = 0
			WHERE id = $2
		`, expiresAt, userID)
		if err != nil {
			return fmt.Errorf("failed to upgrade user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return completed, nil
}

// MarkPaymentFailed moves a pending payment to failed. Returns false when the
// payment was not pending.
func (r *Repository) MarkPaymentFailed(ctx context.Context, paymentID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE payments SET status = 'failed'
		WHERE id = $1 AND status = 'pending'
	`, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
