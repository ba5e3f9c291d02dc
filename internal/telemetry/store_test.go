// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tagbot/internal/mistral"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "usage.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordUsageAndTotals(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.RecordUsage(ctx, "mistral-tiny", mistral.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	store.RecordUsage(ctx, "mistral-tiny", mistral.Usage{PromptTokens: 20, CompletionTokens: 7, TotalTokens: 27})
	store.RecordUsage(ctx, "mistral-small", mistral.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2})

	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, Totals{Requests: 3, PromptTokens: 31, CompletionTokens: 13, TotalTokens: 44}, totals)
}

func TestTotalsByModel(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.RecordUsage(ctx, "mistral-tiny", mistral.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	store.RecordUsage(ctx, "mistral-small", mistral.Usage{PromptTokens: 4, CompletionTokens: 2, TotalTokens: 6})

	byModel, err := store.TotalsByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	require.Equal(t, Totals{Requests: 1, PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, byModel["mistral-tiny"])
	require.Equal(t, Totals{Requests: 1, PromptTokens: 4, CompletionTokens: 2, TotalTokens: 6}, byModel["mistral-small"])
}

func TestTotalsEmptyStore(t *testing.T) {
	store := openTestStore(t)

	totals, err := store.Totals(context.Background())
	require.NoError(t, err)
	require.Equal(t, Totals{}, totals)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "usage.db")

	store, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestRecordUsageAfterCloseIsDropped(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "usage.db"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Must not panic or surface an error to the caller.
	store.RecordUsage(context.Background(), "mistral-tiny", mistral.Usage{TotalTokens: 1})
}
