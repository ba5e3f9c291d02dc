// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generate holds the three LLM-backed generators behind the bot:
// the task selector that classifies an incoming message, the tags
// generator that turns a note into a tag line, and the help generator
// that answers questions about the bot itself.
//
// Each generator owns its prompt and few-shot primer history and primes
// the mistral.Client it is given at construction time. Pass every
// generator its own client: priming mutates the client, and after
// construction the configuration is read-only so generators are safe
// for concurrent use.
package generate
