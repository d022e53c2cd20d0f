package models

import "time"

// AIRequestType identifies what a billable generation produced
type AIRequestType string

const (
	AIRequestFlashcards AIRequestType = "flashcard_generation"
	AIRequestQuiz       AIRequestType = "quiz_generation"
)

// AIRequest is one row of the append-only billing audit log
type AIRequest struct {
	ID          int64         `json:"id" db:"id"`
	UserID      int64         `json:"user_id" db:"user_id"`
	RequestType AIRequestType `json:"request_type" db:"request_type"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
