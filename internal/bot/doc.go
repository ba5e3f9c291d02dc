// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bot coordinates the lifecycle of one incoming chat message.
//
// Each message is driven through classify -> generate -> reply while a
// single outward status message tracks progress: it is created as a
// reply to the user, then edited in place through "processing",
// "generating" and finally the result (or a generic failure notice).
//
// # Key Types
//
//   - Handler: the per-message coordinator
//   - Transport: the chat-framework boundary (send, reply, edit)
//   - Incoming / Message: inbound event and outward message shapes
//
// Generator failures never propagate past the Handler: they are logged
// at warning level and turned into a fixed, non-technical apology on
// the status message. Only transport failures are returned to the
// caller.
package bot
