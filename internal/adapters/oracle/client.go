// Package oracle calls an OpenAI-compatible chat completion service with
// retry and backoff. The planner uses it to generate trip suggestions; the
// adapter itself knows nothing about trips, only prompts and completions.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxResponseSize limits the completion body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// RetryConfig holds retry behavior for completion requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per request.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns sensible retry defaults for completion requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// Config describes one completion endpoint.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1" or a local
	// Ollama/vLLM endpoint. Defaults to the local Ollama URL.
	BaseURL string

	// APIKey is sent as a bearer token when non-empty. Local endpoints
	// usually run without one.
	APIKey string

	// Model names the model to request. Required.
	Model string

	// Temperature controls randomness. nil uses the endpoint default.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the endpoint default.
	MaxTokens int

	// Timeout bounds one HTTP round trip. Completions are slow; the
	// default allows three minutes.
	Timeout time.Duration

	Retry RetryConfig
}

// Client talks to one OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("oracle: model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryConfig()
	}

	endpoint := strings.TrimSuffix(cfg.BaseURL, "/")
	if !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint += "/chat/completions"
	}

	return &Client{
		cfg:        cfg,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one system+user exchange and returns the raw completion
// text, retrying transient failures with exponential backoff and jitter.
func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.Retry.MaxAttempts; attempt++ {
		content, err := c.doRequest(ctx, system, user)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if IsFatal(err) {
			return "", err
		}

		if attempt < c.cfg.Retry.MaxAttempts {
			backoff := c.calculateBackoff(attempt)
			log.Printf("completion request failed (attempt %d/%d), retrying in %s: %v",
				attempt, c.cfg.Retry.MaxAttempts, backoff, err)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", c.cfg.Retry.MaxAttempts, lastErr)
}

// calculateBackoff computes exponential backoff with jitter. Jitter
// prevents synchronized retries across concurrent planners.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.cfg.Retry.BackoffMultiplier
	}

	backoff := time.Duration(float64(c.cfg.Retry.BackoffBase) * multiplier)
	if backoff > c.cfg.Retry.MaxBackoff {
		backoff = c.cfg.Retry.MaxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

func (c *Client) doRequest(ctx context.Context, system string, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
	}
	if c.cfg.MaxTokens > 0 {
		reqBody.MaxTokens = &c.cfg.MaxTokens
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", NewFatalError(fmt.Errorf("marshal completion request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("create completion request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network errors are transient.
		return "", NewTransientError(fmt.Errorf("completion request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("read completion response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(httpResp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("completion response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
