// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telegram adapts the Telegram Bot API to the transport
// boundary the message handler expects.
//
// All outbound text is sent with MarkdownV2 parse mode. Run drives a
// long-poll loop and dispatches one goroutine per incoming update, so
// messages from different chats never block each other.
package telegram
