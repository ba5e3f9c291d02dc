// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/tagbot/internal/mistral"
	"github.com/jeranaias/tagbot/internal/prompt"
)

// =============================================================================
// TASK TYPE
// =============================================================================

// TaskType classifies what an incoming message asks the bot to do.
type TaskType int

const (
	// TaskNote is anything that reads like a note to be tagged.
	TaskNote TaskType = iota
	// TaskHelp is a question about the bot itself.
	TaskHelp
	// TaskUnknown is input the bot cannot make sense of.
	TaskUnknown
)

// TaskTypes returns all task types in declaration order. The selector
// scans replies in this order, so TaskNote wins over TaskHelp when a
// reply somehow carries both markers.
func TaskTypes() []TaskType {
	return []TaskType{TaskNote, TaskHelp, TaskUnknown}
}

// String returns the human-readable name of the task type.
func (t TaskType) String() string {
	switch t {
	case TaskNote:
		return "Note"
	case TaskHelp:
		return "Help"
	case TaskUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("TaskType(%d)", int(t))
	}
}

// Marker returns the bracketed tag the model is primed to answer with.
func (t TaskType) Marker() string {
	switch t {
	case TaskNote:
		return "[note]"
	case TaskHelp:
		return "[help]"
	default:
		return "[unknown]"
	}
}

// Description returns the prompt line describing this task type to the
// model. Used only for prompt construction.
func (t TaskType) Description() string {
	marker := t.Marker()
	switch t {
	case TaskNote:
		return fmt.Sprintf("`%s`: User typed anything that look like a note: shopping list, idea, some movie to watch etc. Probably any sentence that doesn't fit other categories and make at least remote sense.", marker)
	case TaskHelp:
		return fmt.Sprintf("`%s`: User directly asked how to use bot, any specific or general question about available commands, bot's features etc.", marker)
	default:
		return fmt.Sprintf("`%s`: User typed something that bot can't understand: gibberish, random letters, etc.", marker)
	}
}

// =============================================================================
// PROMPT
// =============================================================================

const selectorPrompt = `
You are the task selector manager bot. Your goal to select exact task that user want to do.

# Tasks
{{tasks}}
`

// selectorMaxTokens bounds the reply; a marker is a handful of tokens.
const selectorMaxTokens = 10

// selectorPrimer returns the fixed few-shot history exemplifying each
// task type.
func selectorPrimer() []mistral.ChatMessage {
	return []mistral.ChatMessage{
		mistral.NewUserMessage("Watch titanic"),
		mistral.NewAssistantMessage("[note]"),
		mistral.NewUserMessage("start"),
		mistral.NewAssistantMessage("[help]"),
		mistral.NewUserMessage("Platformer game about a cat"),
		mistral.NewAssistantMessage("[note]"),
		mistral.NewUserMessage("zerxtcvbhjkm"),
		mistral.NewAssistantMessage("[unknown]"),
		mistral.NewUserMessage("How to use this bot?"),
		mistral.NewAssistantMessage("[help]"),
	}
}

// =============================================================================
// SELECTOR
// =============================================================================

// Selector classifies incoming messages into a TaskType. It keeps no
// state across calls.
type Selector struct {
	client *mistral.Client
}

// NewSelector primes the given client for task selection and returns
// the selector. The client must not be shared with other generators.
func NewSelector(client *mistral.Client) *Selector {
	descriptions := make([]string, 0, len(TaskTypes()))
	for _, t := range TaskTypes() {
		descriptions = append(descriptions, "- "+t.Description())
	}

	client.WithMaxTokens(selectorMaxTokens).
		WithHistory(selectorPrimer()).
		WithSystemMessage(prompt.Render(selectorPrompt, map[string]string{
			"tasks": strings.Join(descriptions, "\n"),
		}))

	return &Selector{client: client}
}

// SelectTask maps text to a TaskType. The first task type (in
// declaration order) whose marker appears in the model reply wins;
// a reply without any marker is TaskUnknown. Classification itself
// never fails — only a transport or protocol error from the client is
// returned, and then the TaskType is not meaningful.
func (s *Selector) SelectTask(ctx context.Context, text string) (TaskType, error) {
	reply, err := s.client.Complete(ctx, strings.TrimSpace(text))
	if err != nil {
		return TaskUnknown, err
	}

	for _, t := range TaskTypes() {
		if strings.Contains(reply, t.Marker()) {
			return t, nil
		}
	}
	return TaskUnknown, nil
}
