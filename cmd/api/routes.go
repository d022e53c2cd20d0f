package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/zubari-ai/studyaid/internal/logging"
	"github.com/zubari-ai/studyaid/internal/middleware"
)

func setupRouter(api *API, rl *middleware.RateLimiter, logger *logging.Logger, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", api.healthCheck)

	// Stripe signs its callbacks; it has no session
	router.POST("/api/payments/webhook", api.stripeWebhook)

	public := router.Group("/api")
	public.Use(middleware.RateLimit(rl))
	{
		public.POST("/signup", api.signup)
		public.POST("/login", api.login)
		public.POST("/logout", api.logout)
	}

	protected := router.Group("/api")
	protected.Use(middleware.SessionAuth(api.auth, api.cookie.Name, logger))
	protected.Use(middleware.RateLimit(rl))
	{
		protected.GET("/user-status", api.userStatus)

		protected.POST("/generate-flashcards", api.generateFlashcards)
		protected.POST("/generate-quiz", api.generateQuiz)
		protected.GET("/get-flashcards", api.getFlashcards)
		protected.DELETE("/delete-flashcard", api.deleteFlashcard)

		protected.POST("/initiate-payment", api.initiatePayment)
		protected.POST("/verify-payment", api.verifyPayment)
	}

	return router
}
