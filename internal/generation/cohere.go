package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zubari-ai/studyaid/internal/config"
)

// CohereClient calls the Cohere generate API
type CohereClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewCohereClient creates a Cohere provider
func NewCohereClient(cfg config.ProviderConfig, timeout time.Duration) *CohereClient {
	return &CohereClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: newHTTPClient(timeout),
	}
}

// Name implements Provider
func (c *CohereClient) Name() string {
	return "cohere"
}

type cohereRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type cohereResponse struct {
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
	Message string `json:"message"`
}

// Generate implements Provider
func (c *CohereClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(cohereRequest{Model: c.model, Prompt: prompt, MaxTokens: c.maxTokens})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cohere request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("failed to read cohere response: %w", err)
	}

	var parsed cohereResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode cohere response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Message != "" {
			return "", fmt.Errorf("cohere API error: %s", parsed.Message)
		}
		return "", fmt.Errorf("cohere API returned status %d", resp.StatusCode)
	}
	if len(parsed.Generations) == 0 {
		return "", fmt.Errorf("no response from cohere")
	}

	return parsed.Generations[0].Text, nil
}
