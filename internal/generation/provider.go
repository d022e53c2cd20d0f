// Package generation turns study notes into flashcards and quizzes through an
// external text-generation provider.
package generation

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNotConfigured is returned by providers that have no API key
var ErrNotConfigured = errors.New("provider not configured")

// maxResponseBody caps how much of a provider reply is read
const maxResponseBody = int64(1 << 20)

// Provider produces free text for a prompt
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
