package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zubari-ai/studyaid/internal/auth"
	"github.com/zubari-ai/studyaid/internal/cache"
	"github.com/zubari-ai/studyaid/internal/config"
	"github.com/zubari-ai/studyaid/internal/generation"
	"github.com/zubari-ai/studyaid/internal/logging"
	"github.com/zubari-ai/studyaid/internal/middleware"
	"github.com/zubari-ai/studyaid/internal/payment"
	"github.com/zubari-ai/studyaid/internal/queue"
	"github.com/zubari-ai/studyaid/internal/quota"
	"github.com/zubari-ai/studyaid/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	testCookieName = "session"
	testFreeLimit  = 5
)

type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.text, p.err
}

func flashcardJSON(n int) string {
	cards := make([]models.Card, n)
	for i := range cards {
		cards[i] = models.Card{Question: fmt.Sprintf("What is %d?", i), Answer: fmt.Sprintf("It is %d", i)}
	}
	data, _ := json.Marshal(cards)
	return string(data)
}

const quizJSON = `[
	{"question":"Capital of Kenya?","options":["Nairobi","Mombasa","Kisumu","Nakuru"],"correct":0},
	{"question":"Largest lake in Africa?","options":["Turkana","Victoria","Tanganyika","Malawi"],"correct":1},
	{"question":"Highest peak in Kenya?","options":["Elgon","Kenya","Kilimanjaro","Longonot"],"correct":1},
	{"question":"Kenyan currency?","options":["Rand","Naira","Shilling","Cedi"],"correct":2},
	{"question":"Coastal city?","options":["Eldoret","Nakuru","Thika","Mombasa"],"correct":3}
]`

type testEnv struct {
	router *gin.Engine
	store  *memStore
	mr     *miniredis.Miniredis
}

func setupTestEnv(t *testing.T, flashcards, quiz generation.Provider) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	sessions, err := cache.NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	logger := logging.NewNop()
	store := newMemStore()
	policy := quota.NewPolicy(store, testFreeLimit)
	events := queue.NoopPublisher{}

	api := &API{
		auth: auth.NewService(store, sessions, config.AuthConfig{
			SessionSecret: "test-secret",
			SessionTTL:    time.Hour,
			CookieName:    testCookieName,
			BcryptCost:    bcrypt.MinCost,
		}, logger),
		status:     policy,
		generation: generation.NewService(flashcards, quiz, store, policy, events, logger, time.Second),
		flashcards: store,
		events:     events,
		payments: payment.NewService(store, payment.SimulatedGateway{}, events, config.PaymentConfig{
			Gateway:       "simulated",
			Currency:      "KES",
			PublicKey:     "pk_test",
			MonthlyAmount: 1000,
			YearlyAmount:  10000,
		}, logger),
		health: []HealthCheck{{Name: "redis", Check: sessions.Ping}},
		cookie: CookieConfig{Name: testCookieName, TTL: time.Hour, Secure: true},
		logger: logger,
	}

	rl := middleware.NewRateLimiter(1000, 1000)
	router := setupRouter(api, rl, logger, []string{"http://localhost:5000"})

	return &testEnv{router: router, store: store, mr: mr}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/signup", "", gin.H{"email": email, "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestQuotaThenUpgradeFlow(t *testing.T) {
	env := setupTestEnv(t, &stubProvider{text: flashcardJSON(5)}, &stubProvider{text: quizJSON})
	token := env.signup(t, "student@example.com")

	w := env.do(t, http.MethodGet, "/api/user-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)
	assert.Equal(t, false, status["isSubscribed"])
	assert.Equal(t, float64(testFreeLimit), status["requestsRemaining"])

	notes := gin.H{"notes": "Photosynthesis converts light to chemical energy.", "deckName": "Biology"}
	for i := 0; i < testFreeLimit; i++ {
		w = env.do(t, http.MethodPost, "/api/generate-flashcards", token, notes)
		require.Equal(t, http.StatusOK, w.Code, "generation %d: %s", i+1, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, false, body["fallback"])
		assert.Len(t, body["flashcards"], 5)
	}

	w = env.do(t, http.MethodPost, "/api/generate-flashcards", token, notes)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, true, decode(t, w)["requiresUpgrade"])

	w = env.do(t, http.MethodPost, "/api/generate-quiz", token, gin.H{"notes": "anything"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = env.do(t, http.MethodGet, "/api/get-flashcards", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["flashcards"], 5*testFreeLimit)

	w = env.do(t, http.MethodPost, "/api/initiate-payment", token, gin.H{"subscriptionType": "monthly"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	initiated := decode(t, w)
	assert.Equal(t, true, initiated["success"])
	assert.Equal(t, float64(1000), initiated["amount"])
	assert.Equal(t, "KES", initiated["currency"])
	assert.Equal(t, "pk_test", initiated["publicKey"])
	_, hasSecret := initiated["clientSecret"]
	assert.False(t, hasSecret)
	reference, _ := initiated["paymentReference"].(string)
	require.True(t, strings.HasPrefix(reference, payment.ReferencePrefix))

	w = env.do(t, http.MethodPost, "/api/verify-payment", token, gin.H{"paymentReference": reference})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])

	w = env.do(t, http.MethodGet, "/api/user-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status = decode(t, w)
	assert.Equal(t, true, status["isSubscribed"])
	assert.Equal(t, "premium", status["subscriptionType"])
	assert.Equal(t, quota.Unlimited, status["requestsRemaining"])
	assert.Equal(t, float64(0), status["requestsUsed"])

	w = env.do(t, http.MethodPost, "/api/generate-flashcards", token, notes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user, err := env.store.GetUserByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, user.AIRequestsUsed, "subscribed generations are not counted")
	assert.Equal(t, testFreeLimit, env.store.requestCount(user.ID))

	// verifying again succeeds without touching the expiry
	expires := *user.SubscriptionExpires
	w = env.do(t, http.MethodPost, "/api/verify-payment", token, gin.H{"paymentReference": reference})
	require.Equal(t, http.StatusOK, w.Code)
	user, err = env.store.GetUserByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.True(t, expires.Equal(*user.SubscriptionExpires))
}

func TestSignupLoginLogout(t *testing.T) {
	env := setupTestEnv(t, nil, nil)

	w := env.do(t, http.MethodPost, "/api/signup", "", gin.H{"email": "a@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, testCookieName+"=")
	assert.Contains(t, cookie, "HttpOnly")

	w = env.do(t, http.MethodPost, "/api/signup", "", gin.H{"email": "a@example.com", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/signup", "", gin.H{"email": "", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "a@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "nobody@example.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "a@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decode(t, w)["token"].(string)

	w = env.do(t, http.MethodGet, "/api/user-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@example.com", decode(t, w)["email"])

	w = env.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")

	w = env.do(t, http.MethodGet, "/api/user-status", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// logout without a session still succeeds
	w = env.do(t, http.MethodPost, "/api/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	env := setupTestEnv(t, nil, nil)
	token := env.signup(t, "cookie@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/user-status", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionExpires(t *testing.T) {
	env := setupTestEnv(t, nil, nil)
	token := env.signup(t, "expiry@example.com")

	env.mr.FastForward(2 * time.Hour)

	w := env.do(t, http.MethodGet, "/api/user-status", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := setupTestEnv(t, nil, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user-status"},
		{http.MethodPost, "/api/generate-flashcards"},
		{http.MethodPost, "/api/generate-quiz"},
		{http.MethodGet, "/api/get-flashcards"},
		{http.MethodDelete, "/api/delete-flashcard"},
		{http.MethodPost, "/api/initiate-payment"},
		{http.MethodPost, "/api/verify-payment"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := env.do(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = env.do(t, r.method, r.path, "not-a-token", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestGenerationFallbackIsFree(t *testing.T) {
	env := setupTestEnv(t, &stubProvider{err: errors.New("upstream down")}, &stubProvider{text: "no json here"})
	token := env.signup(t, "fallback@example.com")

	w := env.do(t, http.MethodPost, "/api/generate-flashcards", token, gin.H{"notes": "cells"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["fallback"])
	assert.NotEmpty(t, body["flashcards"])

	w = env.do(t, http.MethodPost, "/api/generate-quiz", token, gin.H{"notes": "cells"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["fallback"])

	w = env.do(t, http.MethodGet, "/api/user-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["requestsUsed"])

	w = env.do(t, http.MethodGet, "/api/get-flashcards", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["flashcards"])
}

func TestGenerateQuizCharges(t *testing.T) {
	env := setupTestEnv(t, nil, &stubProvider{text: quizJSON})
	token := env.signup(t, "quiz@example.com")

	w := env.do(t, http.MethodPost, "/api/generate-quiz", token, gin.H{"notes": "geography"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, false, body["fallback"])
	assert.Len(t, body["quiz"], 5)

	w = env.do(t, http.MethodGet, "/api/user-status", token, nil)
	assert.Equal(t, float64(1), decode(t, w)["requestsUsed"])
}

func TestGenerateRejectsEmptyNotes(t *testing.T) {
	env := setupTestEnv(t, &stubProvider{text: flashcardJSON(5)}, &stubProvider{text: quizJSON})
	token := env.signup(t, "empty@example.com")

	w := env.do(t, http.MethodPost, "/api/generate-flashcards", token, gin.H{"notes": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/generate-quiz", token, gin.H{"notes": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteFlashcardOwnership(t *testing.T) {
	env := setupTestEnv(t, &stubProvider{text: flashcardJSON(5)}, nil)
	owner := env.signup(t, "owner@example.com")
	other := env.signup(t, "other@example.com")

	w := env.do(t, http.MethodPost, "/api/generate-flashcards", owner, gin.H{"notes": "history"})
	require.Equal(t, http.StatusOK, w.Code)

	user, err := env.store.GetUserByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	cards, err := env.store.ListFlashcards(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, cards, 5)

	w = env.do(t, http.MethodDelete, "/api/delete-flashcard", other, gin.H{"id": cards[0].ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/delete-flashcard", owner, gin.H{"id": cards[0].ID})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/delete-flashcard?id=%d", cards[1].ID), owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/delete-flashcard", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/get-flashcards", owner, nil)
	assert.Len(t, decode(t, w)["flashcards"], 3)
}

func TestPaymentValidation(t *testing.T) {
	env := setupTestEnv(t, nil, nil)
	alice := env.signup(t, "alice@example.com")
	bob := env.signup(t, "bob@example.com")

	w := env.do(t, http.MethodPost, "/api/initiate-payment", alice, gin.H{"subscriptionType": "weekly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/verify-payment", alice, gin.H{"paymentReference": "ZUB_UNKNOWN"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/verify-payment", alice, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/initiate-payment", alice, gin.H{"subscriptionType": "yearly"})
	require.Equal(t, http.StatusOK, w.Code)
	reference, _ := decode(t, w)["paymentReference"].(string)

	w = env.do(t, http.MethodPost, "/api/verify-payment", bob, gin.H{"paymentReference": reference})
	assert.Equal(t, http.StatusNotFound, w.Code, "references are scoped to their owner")
}

func TestConcurrentGenerationsNeverOverrunQuota(t *testing.T) {
	env := setupTestEnv(t, &stubProvider{text: flashcardJSON(5)}, nil)
	token := env.signup(t, "race@example.com")
	notes := gin.H{"notes": "mitochondria"}

	for i := 0; i < testFreeLimit-1; i++ {
		w := env.do(t, http.MethodPost, "/api/generate-flashcards", token, notes)
		require.Equal(t, http.StatusOK, w.Code)
	}

	const parallel = 8
	codes := make([]int, parallel)
	var wg sync.WaitGroup
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = env.do(t, http.MethodPost, "/api/generate-flashcards", token, notes).Code
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, code := range codes {
		if code == http.StatusOK {
			succeeded++
		} else {
			assert.Equal(t, http.StatusPaymentRequired, code)
		}
	}
	assert.Equal(t, 1, succeeded)

	user, err := env.store.GetUserByEmail(context.Background(), "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, testFreeLimit, user.AIRequestsUsed)
	assert.Equal(t, testFreeLimit, env.store.requestCount(user.ID))

	cards, err := env.store.ListFlashcards(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 5*testFreeLimit, "rejected requests save nothing")
}

func TestVerifyFailureLeavesUserOnFreeTier(t *testing.T) {
	env := setupTestEnv(t, &stubProvider{text: flashcardJSON(5)}, nil)
	token := env.signup(t, "atomic@example.com")

	w := env.do(t, http.MethodPost, "/api/generate-flashcards", token, gin.H{"notes": "enzymes"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/initiate-payment", token, gin.H{"subscriptionType": "monthly"})
	require.Equal(t, http.StatusOK, w.Code)
	reference, _ := decode(t, w)["paymentReference"].(string)

	env.store.completeErr = errors.New("connection reset")
	w = env.do(t, http.MethodPost, "/api/verify-payment", token, gin.H{"paymentReference": reference})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	user, err := env.store.GetUserByEmail(context.Background(), "atomic@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionFree, user.SubscriptionType)
	assert.Nil(t, user.SubscriptionExpires)
	assert.Equal(t, 1, user.AIRequestsUsed)

	stored, err := env.store.GetPaymentByReference(context.Background(), reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)

	env.store.completeErr = nil
	w = env.do(t, http.MethodPost, "/api/verify-payment", token, gin.H{"paymentReference": reference})
	require.Equal(t, http.StatusOK, w.Code)

	user, err = env.store.GetUserByEmail(context.Background(), "atomic@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPremium, user.SubscriptionType)
	assert.Equal(t, 0, user.AIRequestsUsed)
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.mr.Close()

	w = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "redis", decode(t, w)["dependency"])
}

// MockPaymentService is a mock implementation of PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, userID int64, plan models.PaymentPlan) (*payment.Initiation, error) {
	args := m.Called(ctx, userID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Initiation), args.Error(1)
}

func (m *MockPaymentService) Verify(ctx context.Context, userID int64, reference string) (*models.Payment, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) HandleStripeEvent(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

func setupPaymentRouter(payments PaymentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	api := &API{payments: payments, logger: logging.NewNop()}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.AuthContextKey, int64(42))
		c.Next()
	})
	router.POST("/api/payments/webhook", api.stripeWebhook)
	router.POST("/api/initiate-payment", api.initiatePayment)
	router.POST("/api/verify-payment", api.verifyPayment)
	return router
}

func TestStripeWebhook(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"accepted", nil, http.StatusOK},
		{"bad signature", fmt.Errorf("%w: mismatch", payment.ErrInvalidSignature), http.StatusBadRequest},
		{"bad event", payment.ErrInvalidEvent, http.StatusBadRequest},
		{"not configured", payment.ErrWebhookNotConfigured, http.StatusInternalServerError},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(MockPaymentService)
			payload := []byte(`{"type":"payment_intent.succeeded"}`)
			payments.On("HandleStripeEvent", mock.Anything, payload, "t=1,v1=abc").Return(tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			w := httptest.NewRecorder()
			setupPaymentRouter(payments).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			payments.AssertExpectations(t)
		})
	}
}

func TestInitiatePaymentIncludesClientSecret(t *testing.T) {
	payments := new(MockPaymentService)
	payments.On("Initiate", mock.Anything, int64(42), models.PlanMonthly).Return(&payment.Initiation{
		Reference:    "ZUB_ABC",
		Amount:       1000,
		Currency:     "KES",
		PublicKey:    "pk_test",
		ClientSecret: "pi_123_secret_456",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/initiate-payment", strings.NewReader(`{"subscriptionType":"monthly"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupPaymentRouter(payments).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ZUB_ABC", body["paymentReference"])
	assert.Equal(t, "pi_123_secret_456", body["clientSecret"])
	payments.AssertExpectations(t)
}

func TestVerifyPaymentErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"pending", payment.ErrPaymentPending, http.StatusPaymentRequired},
		{"failed", payment.ErrPaymentFailed, http.StatusPaymentRequired},
		{"gateway", fmt.Errorf("%w: timeout", payment.ErrGateway), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(MockPaymentService)
			payments.On("Verify", mock.Anything, int64(42), "ZUB_ABC").Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/verify-payment", strings.NewReader(`{"paymentReference":"ZUB_ABC"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			setupPaymentRouter(payments).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			payments.AssertExpectations(t)
		})
	}
}
