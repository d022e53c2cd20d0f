package models

import (
	"strings"
	"time"
)

// DefaultDeckName is used when a generation request names no deck
const DefaultDeckName = "General"

// QuizOptionCount is the number of choices on every quiz question
const QuizOptionCount = 4

// Flashcard is a persisted question/answer pair owned by one user
type Flashcard struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Question  string    `json:"question" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	DeckName  string    `json:"deck_name" db:"deck_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Card is a generated question/answer pair before it is saved
type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Valid reports whether both sides of the card carry text
func (c Card) Valid() bool {
	return strings.TrimSpace(c.Question) != "" && strings.TrimSpace(c.Answer) != ""
}

// QuizQuestion is a multiple-choice question
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// Valid checks the question text, the option count and the correct index
func (q QuizQuestion) Valid() bool {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) != QuizOptionCount {
		return false
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return false
		}
	}
	return q.Correct >= 0 && q.Correct < QuizOptionCount
}

// NormalizeDeckName trims the name and falls back to the default deck
func NormalizeDeckName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDeckName
	}
	return name
}
