package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zubari-ai/studyaid/internal/database"
	"github.com/zubari-ai/studyaid/pkg/models"
)

type generateFlashcardsRequest struct {
	Notes    string `json:"notes"`
	DeckName string `json:"deckName"`
}

type generateQuizRequest struct {
	Notes string `json:"notes"`
}

type deleteFlashcardRequest struct {
	ID int64 `json:"id"`
}

// POST /api/generate-flashcards
func (api *API) generateFlashcards(c *gin.Context) {
	var req generateFlashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := api.generation.GenerateFlashcards(c.Request.Context(), currentUser(c), req.Notes, req.DeckName)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flashcards": result.Flashcards,
		"fallback":   result.Fallback,
	})
}

// POST /api/generate-quiz
func (api *API) generateQuiz(c *gin.Context) {
	var req generateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := api.generation.GenerateQuiz(c.Request.Context(), currentUser(c), req.Notes)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quiz":     result.Quiz,
		"fallback": result.Fallback,
	})
}

// GET /api/get-flashcards
func (api *API) getFlashcards(c *gin.Context) {
	flashcards, err := api.flashcards.ListFlashcards(c.Request.Context(), currentUser(c))
	if err != nil {
		api.respondError(c, err)
		return
	}

	if flashcards == nil {
		flashcards = []*models.Flashcard{}
	}
	c.JSON(http.StatusOK, gin.H{"flashcards": flashcards})
}

// DELETE /api/delete-flashcard takes the id as JSON body or ?id= query
func (api *API) deleteFlashcard(c *gin.Context) {
	id, ok := flashcardID(c)
	if !ok {
		badRequest(c, "Flashcard ID required")
		return
	}

	err := api.flashcards.DeleteFlashcard(c.Request.Context(), currentUser(c), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flashcard not found"})
		return
	}
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func flashcardID(c *gin.Context) (int64, bool) {
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		return id, err == nil && id > 0
	}

	var req deleteFlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return 0, false
	}
	return req.ID, req.ID > 0
}
