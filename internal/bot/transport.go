// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bot

import "context"

// Incoming is one inbound chat event. Text is empty when the message
// carries no processable text payload (stickers, photos, voice).
type Incoming struct {
	ChatID    int64
	MessageID int
	Text      string
}

// Message is an outward message as the transport currently renders it.
// Text holds the rendered form (markdown entities already applied and
// stripped), which is what the idempotent-edit check compares against.
type Message struct {
	ChatID int64
	ID     int
	Text   string
}

// Transport is the chat-framework boundary. Implementations send
// MarkdownV2-formatted text and return the updated message including
// its rendered text.
type Transport interface {
	// Send posts a new message to the chat.
	Send(ctx context.Context, chatID int64, text string) (Message, error)

	// Reply posts a new message as a reply to messageID.
	Reply(ctx context.Context, chatID int64, messageID int, text string) (Message, error)

	// Edit replaces the text of an existing message.
	Edit(ctx context.Context, msg Message, text string) (Message, error)
}
