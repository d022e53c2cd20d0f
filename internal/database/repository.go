package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/zubari-ai/studyaid/pkg/models"
)

// Repository provides database operations
type Repository struct {
	db *DB

	// beforeUpgrade runs inside the payment completion transaction between the
	// payment update and the user update. Tests use it to inject failures.
	beforeUpgrade func(ctx context.Context, tx pgx.Tx) error
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks the underlying pool
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

const userColumns = `id, email, password, subscription_type::text, subscription_expires, ai_requests_used, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.SubscriptionType,
		&user.SubscriptionExpires, &user.AIRequestsUsed, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Users

// CreateUser inserts a new free-tier user. Returns ErrDuplicate when the email is taken.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (email, password)
		VALUES ($1, $2)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, email, passwordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// chargeQuota consumes one free-tier request and appends the audit row. The
// increment only applies while the counter is below limit, so two concurrent
// requests cannot both take the last slot.
func chargeQuota(ctx context.Context, tx pgx.Tx, userID int64, limit int, requestType models.AIRequestType) error {
	var used int
	err := tx.QueryRow(ctx, `
		UPDATE users
		SET ai_requests_used = ai_requests_used + 1
		WHERE id = $1 AND ai_requests_used < $2
		RETURNING ai_requests_used
	`, userID, limit).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrQuotaExhausted
	}
	if err != nil {
		return fmt.Errorf("failed to increment quota: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO ai_requests (user_id, request_type) VALUES ($1, $2)`,
		userID, string(requestType),
	); err != nil {
		return fmt.Errorf("failed to log ai request: %w", err)
	}

	return nil
}

// ListAIRequests returns the audit log of a user, newest first
func (r *Repository) ListAIRequests(ctx context.Context, userID int64) ([]*models.AIRequest, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, request_type::text, created_at
		FROM ai_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ai requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.AIRequest
	for rows.Next() {
		var req models.AIRequest
		if err := rows.Scan(&req.ID, &req.UserID, &req.RequestType, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ai request: %w", err)
		}
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}
