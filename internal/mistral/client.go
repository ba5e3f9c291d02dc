// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/tagbot/internal/util"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeConnection covers request construction and network failures.
	ErrTypeConnection
	// ErrTypeTimeout is a deadline or cancellation while talking to the API.
	ErrTypeTimeout
	// ErrTypeAuth is a 401/403 from the API (bad or expired key).
	ErrTypeAuth
	// ErrTypeRateLimited is a 429 from the API.
	ErrTypeRateLimited
	// ErrTypeStatus is any other non-2xx status.
	ErrTypeStatus
	// ErrTypeProtocol means the API responded but the body could not be
	// decoded into the expected shape, or it carried no choices.
	ErrTypeProtocol
)

// ClientError represents an error from the Mistral client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Sentinel errors for easy checking.
var (
	ErrNotConfigured = &ClientError{Type: ErrTypeAuth, Message: "Mistral API key not configured"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrAuthFailed    = &ClientError{Type: ErrTypeAuth, Message: "authentication failed"}
	ErrRateLimited   = &ClientError{Type: ErrTypeRateLimited, Message: "rate limited"}
	ErrNoChoices     = &ClientError{Type: ErrTypeProtocol, Message: "response contains no completion choices"}
)

// IsTransport reports whether err is a transport-level failure: the API
// was unreachable or answered with a non-2xx status.
func IsTransport(err error) bool {
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		return false
	}
	switch clientErr.Type {
	case ErrTypeConnection, ErrTypeTimeout, ErrTypeAuth, ErrTypeRateLimited, ErrTypeStatus:
		return true
	}
	return false
}

// IsProtocol reports whether err means the API answered with an
// unexpected shape.
func IsProtocol(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeProtocol
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Configuration defaults for the Mistral API.
const (
	// DefaultBaseURL is the chat completions endpoint.
	DefaultBaseURL = "https://api.mistral.ai/v1/chat/completions"

	// DefaultModel is the cheapest Mistral model, which is enough for
	// the short classification and tagging tasks this bot runs.
	DefaultModel = "mistral-tiny"

	// DefaultTemperature matches the API default.
	DefaultTemperature = 0.7

	// DefaultTimeout bounds one completion request.
	DefaultTimeout = 60 * time.Second

	// maxResponseSize caps the response body read to keep a misbehaving
	// endpoint from exhausting memory.
	maxResponseSize = 10 * 1024 * 1024
)

// UsageRecorder receives token accounting after each successful
// completion. Implementations must tolerate concurrent calls.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, model string, usage Usage)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Mistral chat completions API.
//
// Configuration is applied through the With* builders at construction
// time and never mutated afterwards, so one Client may serve concurrent
// Complete calls. The builders mutate the receiver and return it for
// chaining; finish configuring a Client before sharing it.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	model       string
	temperature float64
	maxTokens   int
	randomSeed  *int64
	history     []ChatMessage
	limiter     *rate.Limiter
	usage       UsageRecorder
	logger      *zap.Logger
}

// NewClient creates a client with default settings for the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		model:       DefaultModel,
		temperature: DefaultTemperature,
		logger:      zap.NewNop(),
	}
}

// WithModel sets the target model identifier.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// WithTemperature sets the sampling temperature. The API accepts values
// in [0, 2].
func (c *Client) WithTemperature(temperature float64) *Client {
	c.temperature = temperature
	return c
}

// WithMaxTokens caps the completion length. Zero means provider default.
func (c *Client) WithMaxTokens(maxTokens int) *Client {
	c.maxTokens = maxTokens
	return c
}

// WithRandomSeed pins the sampling seed for reproducible completions.
func (c *Client) WithRandomSeed(seed int64) *Client {
	c.randomSeed = &seed
	return c
}

// WithHistory replaces the primer history.
func (c *Client) WithHistory(history []ChatMessage) *Client {
	c.history = history
	return c
}

// WithMessage appends a turn to the primer history.
func (c *Client) WithMessage(msg ChatMessage) *Client {
	c.history = append(c.history, msg)
	return c
}

// WithSystemMessage appends a system turn to the primer history.
func (c *Client) WithSystemMessage(content string) *Client {
	return c.WithMessage(NewSystemMessage(content))
}

// WithUserMessage appends a user turn to the primer history.
func (c *Client) WithUserMessage(content string) *Client {
	return c.WithMessage(NewUserMessage(content))
}

// WithAssistantMessage appends an assistant turn to the primer history.
func (c *Client) WithAssistantMessage(content string) *Client {
	return c.WithMessage(NewAssistantMessage(content))
}

// WithBaseURL overrides the chat completions endpoint.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithLimiter installs a request rate limiter shared with other clients
// hitting the same API key.
func (c *Client) WithLimiter(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// WithUsageRecorder installs a sink for per-request token accounting.
func (c *Client) WithUsageRecorder(r UsageRecorder) *Client {
	c.usage = r
	return c
}

// WithLogger sets the logger. Defaults to a no-op logger.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	c.logger = logger
	return c
}

// Clone returns a copy of the client with its own primer history. The
// HTTP client, limiter, usage recorder and logger are shared.
func (c *Client) Clone() *Client {
	clone := *c
	clone.history = append([]ChatMessage(nil), c.history...)
	return &clone
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// History returns the primer history. The returned slice must not be
// modified.
func (c *Client) History() []ChatMessage {
	return c.history
}

// IsConfigured reports whether the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete sends the primer history plus one user turn and returns the
// first completion choice verbatim. Nothing is retained, so concurrent
// calls on one client are safe.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	resp, err := c.chat(ctx, append(c.snapshotHistory(), NewUserMessage(message)))
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}

// snapshotHistory copies the primer so callers can append a turn
// without touching the shared slice.
func (c *Client) snapshotHistory() []ChatMessage {
	return append(make([]ChatMessage, 0, len(c.history)+1), c.history...)
}

// chat performs one completions request with the given message list and
// guarantees at least one choice on success.
func (c *Client) chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "rate limiter wait aborted", Cause: err}
		}
	}

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		RandomSeed:  c.randomSeed,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("completions response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var result ChatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeProtocol, Message: "failed to decode response", Cause: err}
	}

	if len(result.Choices) == 0 {
		return nil, ErrNoChoices
	}

	c.logger.Debug("completion",
		zap.String("model", result.Model),
		zap.String("finish_reason", string(result.Choices[0].FinishReason)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
		zap.String("content", util.TruncateRunes(result.Choices[0].Message.Content, 200)))

	if c.usage != nil {
		c.usage.RecordUsage(ctx, c.model, result.Usage)
	}

	return &result, nil
}

// statusError maps a non-2xx response to a ClientError, pulling the API
// error message out of the body when one is present.
func (c *Client) statusError(resp *http.Response) *ClientError {
	errType := ErrTypeStatus
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = ErrTypeAuth
	case http.StatusTooManyRequests:
		errType = ErrTypeRateLimited
	}

	var apiErr apiErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return &ClientError{
			Type:    errType,
			Message: fmt.Sprintf("chat request failed (HTTP %d): %s", resp.StatusCode, apiErr.Message),
		}
	}
	return &ClientError{
		Type:    errType,
		Message: "chat request failed: " + resp.Status,
	}
}
