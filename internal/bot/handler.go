// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/tagbot/internal/generate"
	"github.com/jeranaias/tagbot/internal/markdown"
)

// =============================================================================
// STATUS TEXT
// =============================================================================

// Status texts are MarkdownV2, already escaped where needed. The
// trailing space after the bold block is deliberate: it keeps the
// rendered width stable across edits.
const (
	textOnlyNotice   = "I can only process text messages"
	statusProcessing = `*Processing message\.\.\.* `
	statusTags       = `*Generating tags\.\.\.* `
	statusHelp       = `*Generating help message\.\.\.* `
	failureNotice    = `Something went wrong, sorry\.\.\.`
)

// =============================================================================
// GENERATOR CONTRACTS
// =============================================================================

// TaskSelector classifies an incoming text into a task type.
type TaskSelector interface {
	SelectTask(ctx context.Context, text string) (generate.TaskType, error)
}

// TagsGenerator turns a note into a rendered MarkdownV2 tag line (or
// the escaped raw model reply when the tags did not parse).
type TagsGenerator interface {
	GenerateTagsMarkdown(ctx context.Context, text string) (string, error)
}

// HelpAnswerer answers questions about the bot. Empty input must
// return the fixed default reply without calling the model.
type HelpAnswerer interface {
	GenerateHelp(ctx context.Context, text string) (string, error)
}

// =============================================================================
// HANDLER
// =============================================================================

// Handler drives one incoming message through classification, the
// matching generator and the status-message edits. Safe for concurrent
// use: all fields are read-only after construction.
type Handler struct {
	transport Transport
	selector  TaskSelector
	tags      TagsGenerator
	help      HelpAnswerer
	logger    *zap.Logger
}

// NewHandler wires a handler from its collaborators.
func NewHandler(transport Transport, selector TaskSelector, tags TagsGenerator, help HelpAnswerer) *Handler {
	return &Handler{
		transport: transport,
		selector:  selector,
		tags:      tags,
		help:      help,
		logger:    zap.NewNop(),
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func (h *Handler) WithLogger(logger *zap.Logger) *Handler {
	h.logger = logger
	return h
}

// HandleMessage processes one incoming message to completion. The
// returned error is always a transport failure; generator errors are
// absorbed into the failure notice.
func (h *Handler) HandleMessage(ctx context.Context, in Incoming) error {
	if strings.TrimSpace(in.Text) == "" {
		if _, err := h.transport.Send(ctx, in.ChatID, textOnlyNotice); err != nil {
			return fmt.Errorf("send text-only notice: %w", err)
		}
		return nil
	}

	h.logger.Debug("received message",
		zap.Int64("chat_id", in.ChatID),
		zap.Int("message_id", in.MessageID))

	status, err := h.transport.Reply(ctx, in.ChatID, in.MessageID, statusProcessing)
	if err != nil {
		return fmt.Errorf("send status message: %w", err)
	}

	task, err := h.selector.SelectTask(ctx, in.Text)
	if err != nil {
		h.logger.Warn("task selection failed", zap.Error(err))
		_, err := h.edit(ctx, status, failureNotice)
		return err
	}

	h.logger.Debug("task selected", zap.Stringer("task", task))

	switch task {
	case generate.TaskNote:
		return h.handleNote(ctx, status, in.Text)
	case generate.TaskHelp:
		return h.handleHelp(ctx, status, in.Text)
	default:
		return h.handleUnknown(ctx, status)
	}
}

func (h *Handler) handleNote(ctx context.Context, status Message, text string) error {
	status, err := h.edit(ctx, status, statusTags)
	if err != nil {
		return err
	}

	rendered, err := h.tags.GenerateTagsMarkdown(ctx, text)
	if err != nil {
		h.logger.Warn("tag generation failed", zap.Error(err))
		_, err := h.edit(ctx, status, failureNotice)
		return err
	}

	_, err = h.edit(ctx, status, rendered)
	return err
}

func (h *Handler) handleHelp(ctx context.Context, status Message, text string) error {
	status, err := h.edit(ctx, status, statusHelp)
	if err != nil {
		return err
	}

	answer, err := h.help.GenerateHelp(ctx, text)
	if err != nil {
		h.logger.Warn("help generation failed", zap.Error(err))
		_, err := h.edit(ctx, status, failureNotice)
		return err
	}

	_, err = h.edit(ctx, status, markdown.Escape(answer))
	return err
}

// handleUnknown asks the help answerer with no input text, which
// short-circuits to its fixed default reply without a model call.
func (h *Handler) handleUnknown(ctx context.Context, status Message) error {
	answer, err := h.help.GenerateHelp(ctx, "")
	if err != nil {
		h.logger.Warn("default reply failed", zap.Error(err))
		_, err := h.edit(ctx, status, failureNotice)
		return err
	}

	_, err = h.edit(ctx, status, markdown.Escape(answer))
	return err
}

// edit replaces the status text, skipping the network call when the
// message already renders the same content.
func (h *Handler) edit(ctx context.Context, msg Message, text string) (Message, error) {
	if msg.Text == markdown.Unescape(text) {
		return msg, nil
	}

	updated, err := h.transport.Edit(ctx, msg, text)
	if err != nil {
		return Message{}, fmt.Errorf("edit status message: %w", err)
	}
	return updated, nil
}
