// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/jeranaias/tagbot/internal/mistral"
)

func TestTaskTypeMarkers(t *testing.T) {
	tests := []struct {
		task   TaskType
		marker string
		name   string
	}{
		{TaskNote, "[note]", "Note"},
		{TaskHelp, "[help]", "Help"},
		{TaskUnknown, "[unknown]", "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.task.Marker(); got != tt.marker {
			t.Errorf("%v.Marker() = %q, want %q", tt.task, got, tt.marker)
		}
		if got := tt.task.String(); got != tt.name {
			t.Errorf("TaskType.String() = %q, want %q", got, tt.name)
		}
		if !strings.Contains(tt.task.Description(), "`"+tt.marker+"`") {
			t.Errorf("%v.Description() does not mention its marker", tt.task)
		}
	}
}

func TestSelectTask(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  TaskType
	}{
		{"bare note marker", "[note]", TaskNote},
		{"bare help marker", "[help]", TaskHelp},
		{"bare unknown marker", "[unknown]", TaskUnknown},
		{"marker inside prose", "I think [note] fits", TaskNote},
		{"declaration order wins", "[help] or maybe [note]", TaskNote},
		{"no marker defaults to unknown", "cannot decide", TaskUnknown},
		{"empty reply defaults to unknown", "", TaskUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := stubCompletion(t, tt.reply)
			sel := NewSelector(client)

			got, err := sel.SelectTask(context.Background(), "Buy milk and eggs")
			if err != nil {
				t.Fatalf("SelectTask() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectTask() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectTaskRequestShape(t *testing.T) {
	client, lastReq := stubCompletion(t, "[note]")
	sel := NewSelector(client)

	if _, err := sel.SelectTask(context.Background(), "  Watch titanic  "); err != nil {
		t.Fatalf("SelectTask() error = %v", err)
	}

	req := lastReq()
	// 10 primer turns, the system prompt, and the new user turn.
	if len(req.Messages) != 12 {
		t.Fatalf("request messages = %d, want 12", len(req.Messages))
	}

	system := req.Messages[10]
	if system.Role != mistral.RoleSystem {
		t.Errorf("messages[10].Role = %q, want system", system.Role)
	}
	for _, task := range TaskTypes() {
		if !strings.Contains(system.Content, task.Description()) {
			t.Errorf("system prompt missing description for %v", task)
		}
	}
	if strings.Contains(system.Content, "{{tasks}}") {
		t.Error("system prompt still contains the {{tasks}} placeholder")
	}

	last := req.Messages[11]
	if last.Role != mistral.RoleUser || last.Content != "Watch titanic" {
		t.Errorf("last message = %+v, want trimmed user turn", last)
	}

	if req.MaxTokens != selectorMaxTokens {
		t.Errorf("request max_tokens = %d, want %d", req.MaxTokens, selectorMaxTokens)
	}
}

func TestSelectTaskPropagatesClientError(t *testing.T) {
	sel := NewSelector(stubFailure(t, http.StatusInternalServerError))

	_, err := sel.SelectTask(context.Background(), "anything")
	if !mistral.IsTransport(err) {
		t.Errorf("error = %v, want transport error", err)
	}
}
