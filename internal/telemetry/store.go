// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/jeranaias/tagbot/internal/mistral"
)

// =============================================================================
// SCHEMA
// =============================================================================

const usageSchema = `
CREATE TABLE IF NOT EXISTS model_usage (
	id                TEXT PRIMARY KEY,
	recorded_at       DATETIME NOT NULL,
	model             TEXT NOT NULL,
	prompt_tokens     INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_model_usage_model ON model_usage(model);
CREATE INDEX IF NOT EXISTS idx_model_usage_recorded_at ON model_usage(recorded_at);
`

// =============================================================================
// USAGE STORE
// =============================================================================

// Store persists token usage rows to SQLite. Safe for concurrent use;
// database/sql serializes access to the single connection pool.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open creates (or opens) the usage database at path, creating parent
// directories and the schema as needed.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create usage db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	if _, err := db.Exec(usageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create usage schema: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordUsage stores one usage row. Implements the model client's
// usage-recorder hook; failures are logged, never returned, so a
// telemetry outage cannot fail a chat call.
func (s *Store) RecordUsage(ctx context.Context, model string, usage mistral.Usage) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model_usage (id, recorded_at, model, prompt_tokens, completion_tokens, total_tokens)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		s.now().UTC(),
		model,
		usage.PromptTokens,
		usage.CompletionTokens,
		usage.TotalTokens,
	)
	if err != nil {
		s.logger.Warn("usage record dropped", zap.String("model", model), zap.Error(err))
		return
	}

	s.logger.Debug("usage recorded",
		zap.String("model", model),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens))
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Totals is an aggregate over recorded usage rows.
type Totals struct {
	Requests         int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Totals aggregates all recorded usage.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(prompt_tokens), 0),
		        COALESCE(SUM(completion_tokens), 0),
		        COALESCE(SUM(total_tokens), 0)
		 FROM model_usage`)

	var t Totals
	if err := row.Scan(&t.Requests, &t.PromptTokens, &t.CompletionTokens, &t.TotalTokens); err != nil {
		return Totals{}, fmt.Errorf("aggregate usage: %w", err)
	}
	return t, nil
}

// TotalsByModel aggregates recorded usage grouped by model id.
func (s *Store) TotalsByModel(ctx context.Context) (map[string]Totals, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model,
		        COUNT(*),
		        COALESCE(SUM(prompt_tokens), 0),
		        COALESCE(SUM(completion_tokens), 0),
		        COALESCE(SUM(total_tokens), 0)
		 FROM model_usage
		 GROUP BY model`)
	if err != nil {
		return nil, fmt.Errorf("aggregate usage by model: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]Totals)
	for rows.Next() {
		var model string
		var t Totals
		if err := rows.Scan(&model, &t.Requests, &t.PromptTokens, &t.CompletionTokens, &t.TotalTokens); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		totals[model] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read usage rows: %w", err)
	}
	return totals, nil
}
