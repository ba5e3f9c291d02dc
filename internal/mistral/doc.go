// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mistral provides the HTTP client for the Mistral chat
// completions API.
//
// A Client carries an immutable primer history (few-shot examples plus a
// system prompt) and per-client generation settings. Complete sends the
// primer plus one user turn and returns the first completion choice
// without retaining anything, so a single Client is safe for concurrent
// use. Session is the stateful variant that accumulates the exchange in
// its own history and must stay confined to one goroutine.
//
// # Errors
//
// All failures are *ClientError values. Transport failures (network,
// timeout, non-2xx status) and protocol failures (undecodable body,
// missing choices, unknown finish reason) are distinguished by ErrorType;
// the content of a successful completion is never validated here.
//
// # Usage
//
//	client := mistral.NewClient(apiKey).
//	    WithModel("mistral-tiny").
//	    WithTemperature(0.5).
//	    WithHistory(primer).
//	    WithSystemMessage(systemPrompt)
//	reply, err := client.Complete(ctx, "Buy milk and eggs")
package mistral
