// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for tagbot.
//
// Configuration is TOML with environment overrides, resolved in order:
//   - built-in defaults
//   - ~/.tagbot/config.toml (or the path in TAGBOT_CONFIG)
//   - TAGBOT_* environment variables
//
// Secrets (the Mistral and Telegram tokens) are usually supplied via
// TAGBOT_MISTRAL_TOKEN and TAGBOT_TELEGRAM_TOKEN rather than the file.
// The Watcher reloads the file on change for the few settings that are
// safe to adjust at runtime.
package config
