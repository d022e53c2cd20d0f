package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/zubari-ai/studyaid/pkg/models"
)

// Flashcards

// SaveFlashcards stores generated cards under deckName. When charge is set the
// quota increment, the audit row and the inserts commit together; if the user
// has no allowance left nothing is written and ErrQuotaExhausted is returned.
func (r *Repository) SaveFlashcards(ctx context.Context, userID int64, deckName string, cards []models.Card, charge bool, limit int) ([]*models.Flashcard, error) {
	saved := make([]*models.Flashcard, 0, len(cards))

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if charge {
			if err := chargeQuota(ctx, tx, userID, limit, models.AIRequestFlashcards); err != nil {
				return err
			}
		}

		for _, card := range cards {
			fc := &models.Flashcard{
				UserID:   userID,
				Question: card.Question,
				Answer:   card.Answer,
				DeckName: deckName,
			}
			err := tx.QueryRow(ctx, `
				INSERT INTO flashcards (user_id, question, answer, deck_name)
				VALUES ($1, $2, $3, $4)
				RETURNING id, created_at
			`, userID, card.Question, card.Answer, deckName).Scan(&fc.ID, &fc.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert flashcard: %w", err)
			}
			saved = append(saved, fc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// ChargeQuiz bills one quiz generation. Quizzes are not persisted.
func (r *Repository) ChargeQuiz(ctx context.Context, userID int64, limit int) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return chargeQuota(ctx, tx, userID, limit, models.AIRequestQuiz)
	})
}

// ListFlashcards retrieves all flashcards owned by a user, newest first
func (r *Repository) ListFlashcards(ctx context.Context, userID int64) ([]*models.Flashcard, error) {
	query := `
		SELECT id, user_id, question, answer, deck_name, created_at
		FROM flashcards
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	defer rows.Close()

	flashcards := []*models.Flashcard{}
	for rows.Next() {
		var fc models.Flashcard
		err := rows.Scan(&fc.ID, &fc.UserID, &fc.Question, &fc.Answer, &fc.DeckName, &fc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard: %w", err)
		}
		flashcards = append(flashcards, &fc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}

	return flashcards, nil
}

// DeleteFlashcard removes a flashcard if and only if userID owns it. The
// ownership check is part of the DELETE predicate.
func (r *Repository) DeleteFlashcard(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM flashcards WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
