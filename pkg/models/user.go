package models

import (
	"time"
)

// SubscriptionType is the tier stored on a user row
type SubscriptionType string

const (
	SubscriptionFree    SubscriptionType = "free"
	SubscriptionPremium SubscriptionType = "premium"
)

// User represents an account
type User struct {
	ID                  int64            `json:"id" db:"id"`
	Email               string           `json:"email" db:"email"`
	PasswordHash        string           `json:"-" db:"password"`
	SubscriptionType    SubscriptionType `json:"subscription_type" db:"subscription_type"`
	SubscriptionExpires *time.Time       `json:"subscription_expires,omitempty" db:"subscription_expires"`
	AIRequestsUsed      int              `json:"ai_requests_used" db:"ai_requests_used"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
}

// IsSubscribed reports whether the user holds a premium subscription that
// has not expired at now.
func (u *User) IsSubscribed(now time.Time) bool {
	if u.SubscriptionType != SubscriptionPremium || u.SubscriptionExpires == nil {
		return false
	}
	return u.SubscriptionExpires.After(now)
}

// UserStatus is the payload returned by the user-status endpoint
type UserStatus struct {
	Email               string           `json:"email"`
	SubscriptionType    SubscriptionType `json:"subscriptionType"`
	IsSubscribed        bool             `json:"isSubscribed"`
	RequestsUsed        int              `json:"requestsUsed"`
	RequestsRemaining   interface{}      `json:"requestsRemaining"`
	SubscriptionExpires *time.Time       `json:"subscriptionExpires,omitempty"`
}
