package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/felixgeelhaar/prioritizer/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*GroqClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGroqClient(GroqConfig{
		APIKey:  "gsk_test",
		BaseURL: srv.URL,
		Model:   "llama-3.1-8b-instant",
	})
	require.NoError(t, err)
	return client, srv
}

func completionHandler(t *testing.T, content string, gotReq *groqRequest) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))

		if gotReq != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotReq))
		}

		resp := groqResponse{
			Model: "llama-3.1-8b-instant",
			Choices: []groqChoice{
				{Message: groqMessage{Role: "assistant", Content: content}},
			},
			Usage: groqUsage{TotalTokens: 42},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
}

func TestNewGroqClientRequiresKey(t *testing.T) {
	_, err := NewGroqClient(GroqConfig{})
	require.Error(t, err)

	var perr *apperrors.PrioritizerError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, apperrors.ErrCodeConfigAPIKeyMissing, perr.Code)
}

func TestGenerate(t *testing.T) {
	var got groqRequest
	client, _ := newTestClient(t, completionHandler(t, `{"prioritized_tasks":[]}`, &got))

	resp, err := client.Generate(context.Background(), &Request{
		SystemPrompt: "You are a coach.",
		Prompt:       "Prioritize my tasks.",
		Temperature:  0.2,
		JSONOnly:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"prioritized_tasks":[]}`, resp.Content)
	assert.Equal(t, "llama-3.1-8b-instant", resp.Model)
	assert.Equal(t, 42, resp.TokensUsed)
	assert.Greater(t, resp.Latency, time.Duration(0))

	// The outgoing request carries the system message, the JSON response
	// format, and the configured model.
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, 0.2, got.Temperature)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestGenerateNoSystemPrompt(t *testing.T) {
	var got groqRequest
	client, _ := newTestClient(t, completionHandler(t, "ok", &got))

	_, err := client.Generate(context.Background(), &Request{Prompt: "hello"})
	require.NoError(t, err)

	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Nil(t, got.ResponseFormat)
}

func TestGenerateAuthError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))

	_, err := client.Generate(context.Background(), &Request{Prompt: "hello"})
	require.Error(t, err)

	var perr *apperrors.PrioritizerError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, apperrors.ErrCodeUpstreamAuth, perr.Code)
}

func TestGenerateAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(groqResponse{Error: &groqError{Message: "rate limit exceeded"}})
	}))

	_, err := client.Generate(context.Background(), &Request{Prompt: "hello"})
	require.Error(t, err)

	var perr *apperrors.PrioritizerError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, apperrors.ErrCodeUpstreamAPI, perr.Code)
	assert.Contains(t, perr.Message, "429")
	assert.Contains(t, perr.Message, "rate limit exceeded")
	assert.True(t, perr.Retryable())
}

func TestGenerateUnreachable(t *testing.T) {
	client, err := NewGroqClient(GroqConfig{
		APIKey:  "gsk_test",
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), &Request{Prompt: "hello"})
	require.Error(t, err)

	var perr *apperrors.PrioritizerError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, apperrors.ErrCodeUpstreamUnreachable, perr.Code)
}

func TestGenerateContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, &Request{Prompt: "hello"})
	require.Error(t, err)
}

func TestRetryable(t *testing.T) {
	ctx := context.Background()

	assert.True(t, retryable(ctx, assert.AnError), "plain transport errors retry")
	assert.False(t, retryable(ctx, context.DeadlineExceeded), "deadline expiry is terminal")
	assert.False(t, retryable(ctx, context.Canceled), "cancellation is terminal")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, retryable(cancelled, assert.AnError), "dead context is terminal")
}

func TestClassifyTransportError(t *testing.T) {
	var perr *apperrors.PrioritizerError

	require.ErrorAs(t, classifyTransportError(context.DeadlineExceeded), &perr)
	assert.Equal(t, apperrors.ErrCodeUpstreamTimeout, perr.Code)

	require.ErrorAs(t, classifyTransportError(assert.AnError), &perr)
	assert.Equal(t, apperrors.ErrCodeUpstreamUnreachable, perr.Code)
}

func TestHealth(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, client.Health(context.Background()))
}

func TestHealthFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	require.Error(t, client.Health(context.Background()))
}

func TestName(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	assert.Equal(t, "groq", client.Name())
}
