// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mistral

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Chat participant roles accepted by the API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn in a conversation. Messages are treated
// as immutable once constructed; primer histories are built from them
// at client construction time and never mutated afterwards.
type ChatMessage struct {
	Role    string `json:"role"`    // "system", "user" or "assistant"
	Content string `json:"content"` // The message content
}

// NewSystemMessage creates a system turn.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user turn.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant turn.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the request body for the chat completions endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`   // 0 = provider default
	RandomSeed  *int64        `json:"random_seed,omitempty"`  // nil = non-deterministic
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// FinishReason explains why the model stopped generating.
type FinishReason string

// Finish reasons recognized from the API. Anything else is treated as a
// protocol error when decoding a response.
const (
	FinishStop        FinishReason = "stop"
	FinishLength      FinishReason = "length"
	FinishModelLength FinishReason = "model_length"
)

// UnmarshalJSON validates the finish reason against the recognized set.
func (f *FinishReason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch FinishReason(s) {
	case FinishStop, FinishLength, FinishModelLength:
		*f = FinishReason(s)
		return nil
	default:
		return fmt.Errorf("unrecognized finish_reason %q", s)
	}
}

// Choice is a single completion candidate. Only the first choice of a
// response is ever used.
type Choice struct {
	Index        int          `json:"index"`
	Message      ChatMessage  `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
}

// Usage reports token accounting for one request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the response from the chat completions endpoint.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the content of the first choice, or "" if there is
// none. Callers that need to distinguish the empty case check
// len(Choices) themselves.
func (r *ChatResponse) Content() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// apiErrorResponse is the error body returned by the API on non-2xx
// statuses.
type apiErrorResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
