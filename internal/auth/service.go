package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zubari-ai/studyaid/internal/cache"
	"github.com/zubari-ai/studyaid/internal/config"
	"github.com/zubari-ai/studyaid/internal/database"
	"github.com/zubari-ai/studyaid/internal/logging"
	"github.com/zubari-ai/studyaid/pkg/models"
)

var (
	// ErrMissingCredentials is returned when email or password is blank
	ErrMissingCredentials = errors.New("email and password required")
	// ErrDuplicateEmail is returned when signing up with a registered email
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a token has no live session behind it
	ErrUnauthenticated = errors.New("not authenticated")
)

// UserStore is the subset of the repository auth needs
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore binds session ids to users
type SessionStore interface {
	SetSession(ctx context.Context, sessionID string, session cache.Session, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*cache.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Session is an established login handed back to the transport layer
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Service implements signup, login, logout and session resolution
type Service struct {
	users      UserStore
	sessions   SessionStore
	tokens     *TokenManager
	ttl        time.Duration
	bcryptCost int
	logger     *logging.Logger
	now        func() time.Time
}

// NewService creates an auth service
func NewService(users UserStore, sessions SessionStore, cfg config.AuthConfig, logger *logging.Logger) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		tokens:     NewTokenManager(cfg.SessionSecret, cfg.SessionTTL),
		ttl:        cfg.SessionTTL,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Signup registers a free-tier user and logs them in
func (s *Service) Signup(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.logger.WithUserID(user.ID).Info("User signed up")
	return s.startSession(ctx, user.ID)
}

// Login verifies credentials and opens a session
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user.ID)
}

// Logout destroys the session behind token. Unknown or malformed tokens are
// ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}

	if err := s.sessions.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// Authenticate resolves token to a user id
func (s *Service) Authenticate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrUnauthenticated
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return 0, ErrUnauthenticated
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.UserID != claims.UserID {
		return 0, ErrUnauthenticated
	}

	return session.UserID, nil
}

func (s *Service) startSession(ctx context.Context, userID int64) (*Session, error) {
	now := s.now()
	sessionID := uuid.NewString()

	if err := s.sessions.SetSession(ctx, sessionID, cache.Session{UserID: userID, CreatedAt: now}, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.tokens.Issue(userID, sessionID, now)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, UserID: userID, ExpiresAt: now.Add(s.ttl)}, nil
}
