package generation

import "fmt"

const (
	minFlashcards = 5
	maxFlashcards = 10
	quizSize      = 5
)

func flashcardPrompt(notes string) string {
	return fmt.Sprintf(`Create flashcards from these study notes.
Reply with only a JSON array of %d to %d objects, each with a "question" and an "answer" string.

Notes:
%s`, minFlashcards, maxFlashcards, notes)
}

func quizPrompt(notes string) string {
	return fmt.Sprintf(`Create a multiple choice quiz with %d questions based on these study notes.
Reply with only a JSON array. Each element must have a "question" string, an "options" array of exactly 4 strings,
and a "correct" integer from 0 to 3 giving the index of the right option.

Notes:
%s`, quizSize, notes)
}
