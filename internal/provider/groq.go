package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/felixgeelhaar/prioritizer/internal/errors"
)

// GroqClient implements the Client interface against Groq's
// OpenAI-compatible chat completions API.
type GroqClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// Groq chat completions request/response structures
type groqRequest struct {
	Model          string        `json:"model"`
	Messages       []groqMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *groqFormat   `json:"response_format,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqFormat struct {
	Type string `json:"type"`
}

type groqResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []groqChoice `json:"choices"`
	Usage   groqUsage    `json:"usage"`
	Error   *groqError   `json:"error,omitempty"`
}

type groqChoice struct {
	Index        int         `json:"index"`
	Message      groqMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

type groqUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type groqError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// GroqConfig holds the settings needed to construct a GroqClient.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewGroqClient creates a new Groq provider instance.
// The API key is required; everything else has defaults.
func NewGroqClient(cfg GroqConfig) (*GroqClient, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewAPIKeyMissingError()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}

	model := cfg.Model
	if model == "" {
		model = "llama-3.1-8b-instant"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GroqClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Client.Name
func (c *GroqClient) Name() string {
	return "groq"
}

// Generate implements Client.Generate.
// Transport-level failures are retried once; HTTP-level errors are not,
// since a 4xx will not improve on a second attempt.
func (c *GroqClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	reqBody, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	const maxAttempts = 2
	var httpResp *http.Response
	for attempt := 1; ; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		httpResp, err = c.client.Do(httpReq)
		if err == nil {
			break
		}
		if attempt < maxAttempts && retryable(ctx, err) {
			continue
		}
		return nil, classifyTransportError(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamUnreachableError(fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		if httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden {
			return nil, apperrors.NewUpstreamAuthError()
		}
		var errResp groqResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return nil, apperrors.NewUpstreamAPIError(httpResp.StatusCode, errResp.Error.Message)
		}
		return nil, apperrors.NewUpstreamAPIError(httpResp.StatusCode, string(respBody))
	}

	var gResp groqResponse
	if err := json.Unmarshal(respBody, &gResp); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUpstreamAPI, "unmarshal provider response", err)
	}

	content := ""
	if len(gResp.Choices) > 0 {
		content = gResp.Choices[0].Message.Content
	}

	return &Response{
		Content:    content,
		Model:      gResp.Model,
		TokensUsed: gResp.Usage.TotalTokens,
		Latency:    time.Since(startTime),
	}, nil
}

// Health implements Client.Health with a lightweight models listing.
func (c *GroqClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("create health check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// buildRequest constructs a Groq API request from our Request.
func (c *GroqClient) buildRequest(req *Request) *groqRequest {
	messages := []groqMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, groqMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, groqMessage{Role: "user", Content: req.Prompt})

	gReq := &groqRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONOnly {
		gReq.ResponseFormat = &groqFormat{Type: "json_object"}
	}
	return gReq
}

// retryable reports whether a transport error is worth one more attempt.
// Context cancellation and deadline expiry are terminal.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled)
}

// classifyTransportError maps a client.Do failure to the error taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewUpstreamTimeoutError(err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewUpstreamTimeoutError(err)
	}
	return apperrors.NewUpstreamUnreachableError(err)
}
