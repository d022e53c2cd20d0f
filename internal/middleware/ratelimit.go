package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter manages rate limiting for API requests
type RateLimiter struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rps int, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// getLimiter returns a rate limiter for a specific key
func (rl *RateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.limiters[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now

	return cl.limiter
}

// Prune drops limiters idle for longer than maxIdle
func (rl *RateLimiter) Prune(now time.Time, maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > maxIdle {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Cleanup prunes idle limiters every interval until done is closed
func (rl *RateLimiter) Cleanup(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			rl.Prune(now, interval)
		}
	}
}

// RateLimit middleware limits requests per user, or per IP before login
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if userID, exists := GetUserID(c); exists {
			key = fmt.Sprintf("user:%d", userID)
		} else {
			key = fmt.Sprintf("ip:%s", c.ClientIP())
		}

		limiter := rl.getLimiter(key, time.Now())
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
