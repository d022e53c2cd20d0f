package generation

import "github.com/zubari-ai/studyaid/pkg/models"

// The placeholder sets returned when no real generation happened. They are
// never saved and never billed.

func fallbackFlashcards() []models.Card {
	return []models.Card{
		{Question: "[Sample] What is the main concept in the provided notes?", Answer: "Based on the study material provided"},
		{Question: "[Sample] What are the key points to remember?", Answer: "The important details from your notes"},
		{Question: "[Sample] How does this concept apply?", Answer: "Practical application of the material"},
	}
}

func fallbackQuiz() []models.QuizQuestion {
	return []models.QuizQuestion{
		{
			Question: "[Sample] What is the primary focus of the study material?",
			Options:  []string{"Option A", "Option B", "Option C", "Option D"},
			Correct:  0,
		},
	}
}
