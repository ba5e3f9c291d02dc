// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mistral

import "context"

// =============================================================================
// STATEFUL SESSION
// =============================================================================

// Session is the stateful variant of the client: each successful Send
// appends the user turn and the model reply to the session's own
// history, so later calls see the whole exchange.
//
// A Session mutates its history and is single-owner: do not share one
// across goroutines. The underlying Client is only read.
type Session struct {
	client  *Client
	history []ChatMessage
}

// NewSession starts a session seeded with the client's primer history.
func NewSession(client *Client) *Session {
	return &Session{
		client:  client,
		history: client.snapshotHistory(),
	}
}

// Send posts the session history plus one user turn, appends both the
// user turn and the reply on success, and returns the reply text.
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	userMsg := NewUserMessage(message)

	resp, err := s.client.chat(ctx, append(append([]ChatMessage(nil), s.history...), userMsg))
	if err != nil {
		return "", err
	}

	reply := resp.Choices[0].Message
	s.history = append(s.history, userMsg, reply)

	return reply.Content, nil
}

// Reset clears the accumulated history completely.
func (s *Session) Reset() {
	s.history = nil
}

// LastResponse returns the content of the most recent turn in the
// history, or false when the history is empty.
func (s *Session) LastResponse() (string, bool) {
	if len(s.history) == 0 {
		return "", false
	}
	return s.history[len(s.history)-1].Content, true
}

// History returns the session history. The returned slice must not be
// modified.
func (s *Session) History() []ChatMessage {
	return s.history
}
