package main

import (
	"context"
	"sync"
	"time"

	"github.com/zubari-ai/studyaid/internal/database"
	"github.com/zubari-ai/studyaid/pkg/models"
)

// memStore is an in-memory stand-in for database.Repository with the same
// error contract.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]*models.User
	flashcards []*models.Flashcard
	payments   []*models.Payment
	aiRequests []*models.AIRequest

	// completeErr fails CompletePayment before anything is written
	completeErr error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]*models.User)}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, database.ErrDuplicate
		}
	}
	user := &models.User{
		ID:               s.id(),
		Email:            email,
		PasswordHash:     passwordHash,
		SubscriptionType: models.SubscriptionFree,
		CreatedAt:        time.Now(),
	}
	s.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memStore) charge(userID int64, limit int, requestType models.AIRequestType) error {
	u, ok := s.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	if u.AIRequestsUsed >= limit {
		return database.ErrQuotaExhausted
	}
	u.AIRequestsUsed++
	s.aiRequests = append(s.aiRequests, &models.AIRequest{
		ID: s.id(), UserID: userID, RequestType: requestType, CreatedAt: time.Now(),
	})
	return nil
}

func (s *memStore) SaveFlashcards(ctx context.Context, userID int64, deckName string, cards []models.Card, charge bool, limit int) ([]*models.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if charge {
		if err := s.charge(userID, limit, models.AIRequestFlashcards); err != nil {
			return nil, err
		}
	}

	saved := make([]*models.Flashcard, 0, len(cards))
	for _, card := range cards {
		fc := &models.Flashcard{
			ID:        s.id(),
			UserID:    userID,
			Question:  card.Question,
			Answer:    card.Answer,
			DeckName:  deckName,
			CreatedAt: time.Now(),
		}
		s.flashcards = append(s.flashcards, fc)
		saved = append(saved, fc)
	}
	return saved, nil
}

func (s *memStore) ChargeQuiz(ctx context.Context, userID int64, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charge(userID, limit, models.AIRequestQuiz)
}

func (s *memStore) ListFlashcards(ctx context.Context, userID int64) ([]*models.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Flashcard{}
	for i := len(s.flashcards) - 1; i >= 0; i-- {
		if s.flashcards[i].UserID == userID {
			out = append(out, s.flashcards[i])
		}
	}
	return out, nil
}

func (s *memStore) DeleteFlashcard(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, fc := range s.flashcards {
		if fc.ID == id && fc.UserID == userID {
			s.flashcards = append(s.flashcards[:i], s.flashcards[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (s *memStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment.ID = s.id()
	payment.Status = models.PaymentStatusPending
	payment.CreatedAt = time.Now()
	copied := *payment
	s.payments = append(s.payments, &copied)
	return nil
}

func (s *memStore) findPayment(match func(*models.Payment) bool) (*models.Payment, error) {
	for _, p := range s.payments {
		if match(p) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) GetPaymentForUser(ctx context.Context, reference string, userID int64) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findPayment(func(p *models.Payment) bool { return p.Reference == reference && p.UserID == userID })
}

func (s *memStore) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findPayment(func(p *models.Payment) bool { return p.Reference == reference })
}

func (s *memStore) CompletePayment(ctx context.Context, paymentID, userID int64, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completeErr != nil {
		return false, s.completeErr
	}

	for _, p := range s.payments {
		if p.ID != paymentID || p.UserID != userID || p.Status != models.PaymentStatusPending {
			continue
		}
		u, ok := s.users[userID]
		if !ok {
			return false, database.ErrNotFound
		}
		p.Status = models.PaymentStatusCompleted
		u.SubscriptionType = models.SubscriptionPremium
		u.SubscriptionExpires = &expiresAt
		u.AIRequestsUsed = 0
		return true, nil
	}
	return false, nil
}

func (s *memStore) MarkPaymentFailed(ctx context.Context, paymentID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.ID == paymentID && p.Status == models.PaymentStatusPending {
			p.Status = models.PaymentStatusFailed
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) requestCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.aiRequests {
		if r.UserID == userID {
			n++
		}
	}
	return n
}
