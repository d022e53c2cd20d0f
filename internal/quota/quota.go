// Package quota derives subscription status and the free-tier allowance from a
// user row.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zubari-ai/studyaid/internal/database"
	"github.com/zubari-ai/studyaid/pkg/models"
)

var (
	// ErrUserNotFound is returned when the session's user no longer exists
	ErrUserNotFound = errors.New("user not found")
	// ErrQuotaExceeded is returned when a non-subscribed user has no free requests left
	ErrQuotaExceeded = errors.New("free tier limit reached")
)

// Unlimited is reported as the remaining allowance of subscribed users
const Unlimited = "unlimited"

// UserGetter loads a user by id
type UserGetter interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Policy applies the free-tier limit
type Policy struct {
	users     UserGetter
	freeLimit int
	now       func() time.Time
}

// NewPolicy creates a policy allowing freeLimit billable requests to
// non-subscribed users
func NewPolicy(users UserGetter, freeLimit int) *Policy {
	return &Policy{users: users, freeLimit: freeLimit, now: time.Now}
}

// FreeLimit returns the configured allowance
func (p *Policy) FreeLimit() int {
	return p.freeLimit
}

// CheckSubscription loads the user and rejects non-subscribed users that have
// used their allowance. It never consumes quota.
func (p *Policy) CheckSubscription(ctx context.Context, userID int64) (*models.User, bool, error) {
	user, err := p.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	subscribed := user.IsSubscribed(p.now())
	if !subscribed && user.AIRequestsUsed >= p.freeLimit {
		return user, false, ErrQuotaExceeded
	}

	return user, subscribed, nil
}

// Status builds the user-status payload
func (p *Policy) Status(ctx context.Context, userID int64) (*models.UserStatus, error) {
	user, err := p.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	subscribed := user.IsSubscribed(p.now())
	status := &models.UserStatus{
		Email:               user.Email,
		SubscriptionType:    user.SubscriptionType,
		IsSubscribed:        subscribed,
		RequestsUsed:        user.AIRequestsUsed,
		SubscriptionExpires: user.SubscriptionExpires,
	}

	if subscribed {
		status.RequestsRemaining = Unlimited
	} else {
		status.RequestsRemaining = p.Remaining(user)
	}

	return status, nil
}

// Remaining returns how many billable requests a non-subscribed user has left
func (p *Policy) Remaining(user *models.User) int {
	remaining := p.freeLimit - user.AIRequestsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (p *Policy) load(ctx context.Context, userID int64) (*models.User, error) {
	user, err := p.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
