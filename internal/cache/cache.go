package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides session storage backed by Redis
type Cache struct {
	client *redis.Client
}

// Session is what a session id resolves to
type Session struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// SetSession binds a session id to a user for ttl
func (c *Cache) SetSession(ctx context.Context, sessionID string, session Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return c.client.Set(ctx, sessionKey(sessionID), data, ttl).Err()
}

// GetSession resolves a session id. A missing or expired session returns nil, nil.
func (c *Cache) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// DeleteSession destroys a session. Deleting an unknown session is not an error.
func (c *Cache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}
