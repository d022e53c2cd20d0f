package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zubari-ai/studyaid/internal/database"
	"github.com/zubari-ai/studyaid/internal/logging"
	"github.com/zubari-ai/studyaid/internal/metrics"
	"github.com/zubari-ai/studyaid/internal/queue"
	"github.com/zubari-ai/studyaid/internal/quota"
	"github.com/zubari-ai/studyaid/internal/tracing"
	"github.com/zubari-ai/studyaid/pkg/models"
)

// ErrEmptyNotes is returned when the notes are blank after trimming
var ErrEmptyNotes = errors.New("please provide study notes")

const (
	kindFlashcards = "flashcards"
	kindQuiz       = "quiz"
)

// Store persists generated output together with its billing
type Store interface {
	SaveFlashcards(ctx context.Context, userID int64, deckName string, cards []models.Card, charge bool, limit int) ([]*models.Flashcard, error)
	ChargeQuiz(ctx context.Context, userID int64, limit int) error
}

// QuotaChecker gates generation on the free-tier allowance
type QuotaChecker interface {
	CheckSubscription(ctx context.Context, userID int64) (*models.User, bool, error)
	FreeLimit() int
}

// FlashcardResult is what a flashcard generation returns to the caller
type FlashcardResult struct {
	Flashcards []models.Card
	Fallback   bool
}

// QuizResult is what a quiz generation returns to the caller
type QuizResult struct {
	Quiz     []models.QuizQuestion
	Fallback bool
}

// Service runs the two-phase generation: call the provider with a bounded
// timeout, then persist and bill in one transaction. Provider failure yields
// placeholder content that is neither saved nor billed.
type Service struct {
	flashcards Provider
	quiz       Provider
	store      Store
	quota      QuotaChecker
	events     queue.Publisher
	logger     *logging.Logger
	timeout    time.Duration
}

// NewService creates a generation service. flashcards and quiz may be the same
// provider.
func NewService(flashcards, quiz Provider, store Store, quota QuotaChecker, events queue.Publisher, logger *logging.Logger, timeout time.Duration) *Service {
	if events == nil {
		events = queue.NoopPublisher{}
	}
	return &Service{
		flashcards: flashcards,
		quiz:       quiz,
		store:      store,
		quota:      quota,
		events:     events,
		logger:     logger,
		timeout:    timeout,
	}
}

// GenerateFlashcards produces flashcards from notes and saves them under deckName
func (s *Service) GenerateFlashcards(ctx context.Context, userID int64, notes, deckName string) (*FlashcardResult, error) {
	span, ctx := tracing.StartSpan(ctx, "generation.flashcards")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "user_id", userID)

	_, subscribed, err := s.quota.CheckSubscription(ctx, userID)
	if err != nil {
		s.recordRejection(kindFlashcards, err)
		return nil, err
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrEmptyNotes
	}
	deckName = models.NormalizeDeckName(deckName)

	text, err := s.call(ctx, s.flashcards, kindFlashcards, flashcardPrompt(notes))
	var cards []models.Card
	if err == nil {
		cards, err = ParseFlashcards(text)
	}
	if err != nil {
		s.fallback(userID, kindFlashcards, err)
		return &FlashcardResult{Flashcards: fallbackFlashcards(), Fallback: true}, nil
	}

	log := s.logger.WithUserID(userID)
	start := time.Now()
	_, err = s.store.SaveFlashcards(ctx, userID, deckName, cards, !subscribed, s.quota.FreeLimit())
	switch {
	case errors.Is(err, database.ErrQuotaExhausted):
		// a concurrent request took the last free slot
		s.recordRejection(kindFlashcards, quota.ErrQuotaExceeded)
		return nil, quota.ErrQuotaExceeded
	case err != nil:
		tracing.LogError(span, err)
		metrics.RecordError("generation", "persist")
		log.WithError(err).Error("Failed to save generated flashcards; returning them unsaved")
	default:
		if !subscribed {
			metrics.RecordQuotaCharge(string(models.AIRequestFlashcards))
		}
		s.publish(ctx, userID, kindFlashcards, len(cards), deckName)
	}
	metrics.RecordDatabaseOperation("save_flashcards", dbStatus(err), time.Since(start).Seconds())
	log.LogDatabaseOperation("save_flashcards", time.Since(start), err)

	metrics.RecordGeneration(kindFlashcards, "generated")
	return &FlashcardResult{Flashcards: cards}, nil
}

// GenerateQuiz produces a multiple-choice quiz from notes. Quizzes are not saved.
func (s *Service) GenerateQuiz(ctx context.Context, userID int64, notes string) (*QuizResult, error) {
	span, ctx := tracing.StartSpan(ctx, "generation.quiz")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "user_id", userID)

	_, subscribed, err := s.quota.CheckSubscription(ctx, userID)
	if err != nil {
		s.recordRejection(kindQuiz, err)
		return nil, err
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrEmptyNotes
	}

	text, err := s.call(ctx, s.quiz, kindQuiz, quizPrompt(notes))
	var quiz []models.QuizQuestion
	if err == nil {
		quiz, err = ParseQuiz(text)
	}
	if err != nil {
		s.fallback(userID, kindQuiz, err)
		return &QuizResult{Quiz: fallbackQuiz(), Fallback: true}, nil
	}

	if !subscribed {
		start := time.Now()
		err := s.store.ChargeQuiz(ctx, userID, s.quota.FreeLimit())
		metrics.RecordDatabaseOperation("charge_quiz", dbStatus(err), time.Since(start).Seconds())
		s.logger.WithUserID(userID).LogDatabaseOperation("charge_quiz", time.Since(start), err)
		switch {
		case errors.Is(err, database.ErrQuotaExhausted):
			s.recordRejection(kindQuiz, quota.ErrQuotaExceeded)
			return nil, quota.ErrQuotaExceeded
		case err != nil:
			tracing.LogError(span, err)
			metrics.RecordError("generation", "billing")
			s.logger.WithUserID(userID).WithError(err).Error("Failed to bill quiz generation")
		default:
			metrics.RecordQuotaCharge(string(models.AIRequestQuiz))
		}
	}

	s.publish(ctx, userID, kindQuiz, len(quiz), "")
	metrics.RecordGeneration(kindQuiz, "generated")
	return &QuizResult{Quiz: quiz}, nil
}

func (s *Service) call(ctx context.Context, provider Provider, kind, prompt string) (string, error) {
	if provider == nil {
		return "", ErrNotConfigured
	}

	span, ctx := tracing.StartSpan(ctx, "generation.provider")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "provider", provider.Name())

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := provider.Generate(ctx, prompt)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		tracing.LogError(span, err)
	}
	metrics.RecordProviderCall(provider.Name(), status, duration.Seconds())
	s.logger.LogProviderCall(provider.Name(), kind, duration, err)

	return text, err
}

func (s *Service) fallback(userID int64, kind string, err error) {
	reason := "provider_error"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.Is(err, ErrUnparsable):
		reason = "unparsable"
	case errors.Is(err, ErrNotConfigured):
		reason = "not_configured"
	}

	metrics.RecordFallback(kind, reason)
	s.logger.WithUserID(userID).WithError(err).
		WithField("kind", kind).
		WithField("reason", reason).
		Warn("Generation fell back to placeholder content")
}

func (s *Service) recordRejection(kind string, err error) {
	if errors.Is(err, quota.ErrQuotaExceeded) {
		metrics.RecordQuotaRejection()
		metrics.RecordGeneration(kind, "rejected")
	}
}

func (s *Service) publish(ctx context.Context, userID int64, kind string, count int, deckName string) {
	data := map[string]interface{}{"kind": kind, "count": count}
	if deckName != "" {
		data["deck_name"] = deckName
	}

	if err := s.events.Publish(ctx, queue.NewEvent(queue.EventGenerationCompleted, userID, data)); err != nil {
		metrics.RecordError("queue", "publish")
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to publish generation event")
	}
}

func dbStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
