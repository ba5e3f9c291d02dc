// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry persists per-request model token usage to a local
// SQLite database.
//
// The Store satisfies the usage-recorder hook of the model client, so
// every completed chat call lands one row with its prompt, completion
// and total token counts. Totals queries aggregate these rows for the
// usage summary logged on shutdown.
//
// Recording is best effort: a failed insert is logged and dropped, it
// never fails the chat call that produced it.
package telemetry
