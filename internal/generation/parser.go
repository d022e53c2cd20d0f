package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zubari-ai/studyaid/pkg/models"
)

// ErrUnparsable means the provider answered but the text held no usable items
var ErrUnparsable = errors.New("unusable provider output")

// ParseFlashcards extracts question/answer pairs from provider text. Items with
// a blank side are dropped, the result is capped at ten and at least five must
// survive.
func ParseFlashcards(text string) ([]models.Card, error) {
	items, err := decodeItems(text, "flashcards", "cards")
	if err != nil {
		return nil, err
	}

	cards := make([]models.Card, 0, maxFlashcards)
	for _, raw := range items {
		var card models.Card
		if err := json.Unmarshal(raw, &card); err != nil {
			continue
		}
		card.Question = strings.TrimSpace(card.Question)
		card.Answer = strings.TrimSpace(card.Answer)
		if !card.Valid() {
			continue
		}
		cards = append(cards, card)
		if len(cards) == maxFlashcards {
			break
		}
	}

	if len(cards) < minFlashcards {
		return nil, fmt.Errorf("%w: %d valid flashcards, need %d", ErrUnparsable, len(cards), minFlashcards)
	}

	return cards, nil
}

type rawQuizItem struct {
	Question string          `json:"question"`
	Options  []string        `json:"options"`
	Correct  json.RawMessage `json:"correct"`
}

// ParseQuiz extracts multiple-choice questions from provider text. Items
// without exactly four options or with an out of range answer are dropped, and
// a full quiz of quizSize questions must survive.
func ParseQuiz(text string) ([]models.QuizQuestion, error) {
	items, err := decodeItems(text, "quiz", "questions")
	if err != nil {
		return nil, err
	}

	quiz := make([]models.QuizQuestion, 0, quizSize)
	for _, raw := range items {
		var item rawQuizItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}

		correct, ok := parseCorrect(item.Correct)
		if !ok {
			continue
		}

		q := models.QuizQuestion{
			Question: strings.TrimSpace(item.Question),
			Options:  make([]string, len(item.Options)),
			Correct:  correct,
		}
		for i, opt := range item.Options {
			q.Options[i] = strings.TrimSpace(opt)
		}
		if !q.Valid() {
			continue
		}

		quiz = append(quiz, q)
		if len(quiz) == quizSize {
			break
		}
	}

	if len(quiz) < quizSize {
		return nil, fmt.Errorf("%w: %d valid quiz questions, need %d", ErrUnparsable, len(quiz), quizSize)
	}

	return quiz, nil
}

// parseCorrect accepts an index (0-3) or an option letter (A-D)
func parseCorrect(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		return idx, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'D' {
		return int(s[0] - 'A'), true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	return 0, false
}

// decodeItems finds the JSON payload in text and returns its elements. The
// payload may be a bare array or an object wrapping one under a known key.
// Models often wrap JSON in prose or code fences, so every '[' and '{' is tried
// in turn and the first value that decodes to a list of objects wins.
func decodeItems(text string, keys ...string) ([]json.RawMessage, error) {
	found := false
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		found = true

		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if items, ok := itemList(raw, keys); ok {
			return items, nil
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: no JSON found", ErrUnparsable)
	}
	return nil, fmt.Errorf("%w: no item array found", ErrUnparsable)
}

// itemList unwraps raw into an array holding at least one JSON object
func itemList(raw json.RawMessage, keys []string) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, hasObject(items)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range keys {
		if inner, ok := wrapper[key]; ok {
			if err := json.Unmarshal(inner, &items); err == nil && hasObject(items) {
				return items, true
			}
		}
	}
	return nil, false
}

func hasObject(items []json.RawMessage) bool {
	for _, item := range items {
		if strings.HasPrefix(strings.TrimSpace(string(item)), "{") {
			return true
		}
	}
	return false
}
