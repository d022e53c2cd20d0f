package main

import (
	"context"
	"time"

	"github.com/zubari-ai/studyaid/internal/auth"
	"github.com/zubari-ai/studyaid/internal/generation"
	"github.com/zubari-ai/studyaid/internal/logging"
	"github.com/zubari-ai/studyaid/internal/payment"
	"github.com/zubari-ai/studyaid/internal/queue"
	"github.com/zubari-ai/studyaid/pkg/models"
)

// AuthService is the session surface the handlers use
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (int64, error)
}

// StatusService reports a user's subscription and allowance
type StatusService interface {
	Status(ctx context.Context, userID int64) (*models.UserStatus, error)
}

// GenerationService produces study material
type GenerationService interface {
	GenerateFlashcards(ctx context.Context, userID int64, notes, deckName string) (*generation.FlashcardResult, error)
	GenerateQuiz(ctx context.Context, userID int64, notes string) (*generation.QuizResult, error)
}

// FlashcardStore lists and deletes saved flashcards
type FlashcardStore interface {
	ListFlashcards(ctx context.Context, userID int64) ([]*models.Flashcard, error)
	DeleteFlashcard(ctx context.Context, userID, id int64) error
}

// PaymentService runs the subscription purchase flow
type PaymentService interface {
	Initiate(ctx context.Context, userID int64, plan models.PaymentPlan) (*payment.Initiation, error)
	Verify(ctx context.Context, userID int64, reference string) (*models.Payment, error)
	HandleStripeEvent(ctx context.Context, payload []byte, signature string) error
}

// HealthCheck is one dependency checked by /health
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// API holds the handler dependencies
type API struct {
	auth       AuthService
	status     StatusService
	generation GenerationService
	flashcards FlashcardStore
	payments   PaymentService
	events     queue.Publisher
	health     []HealthCheck
	cookie     CookieConfig
	logger     *logging.Logger
}
