package oracle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-dispatch-service/internal/adapters/oracle"
)

func completionResponse(content string) map[string]any {
	return map[string]any{
		"model": "test-model",
		"choices": []map[string]any{
			{
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}
}

func fastRetry() oracle.RetryConfig {
	return oracle.RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        20 * time.Millisecond,
	}
}

func TestClientCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse(`{"suggestions":[]}`))
	}))
	defer server.Close()

	client, err := oracle.NewClient(oracle.Config{
		BaseURL: server.URL + "/v1",
		APIKey:  "sk-test",
		Model:   "test-model",
		Retry:   fastRetry(),
	})
	require.NoError(t, err)

	content, err := client.Complete(context.Background(), "you are a planner", "plan these stops")
	require.NoError(t, err)
	assert.Equal(t, `{"suggestions":[]}`, content)
}

func TestClientRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(completionResponse("ok"))
	}))
	defer server.Close()

	client, err := oracle.NewClient(oracle.Config{
		BaseURL: server.URL,
		Model:   "test-model",
		Retry:   fastRetry(),
	})
	require.NoError(t, err)

	content, err := client.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryFatalErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := oracle.NewClient(oracle.Config{
		BaseURL: server.URL,
		Model:   "test-model",
		Retry:   fastRetry(),
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, oracle.IsFatal(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := oracle.NewClient(oracle.Config{
		BaseURL: server.URL,
		Model:   "test-model",
		Retry:   fastRetry(),
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, oracle.IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNewClientRequiresModel(t *testing.T) {
	_, err := oracle.NewClient(oracle.Config{BaseURL: "http://localhost:1234"})
	require.Error(t, err)
}
