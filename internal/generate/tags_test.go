// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/jeranaias/tagbot/internal/mistral"
)

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParseTags(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		maxTags int
		want    Tags
		wantOK  bool
	}{
		{
			name:    "simple list",
			reply:   "#idea #game #platformer",
			maxTags: 6,
			want:    Tags{"idea", "game", "platformer"},
			wantOK:  true,
		},
		{
			name:    "single tag",
			reply:   "#recipe",
			maxTags: 6,
			want:    Tags{"recipe"},
			wantOK:  true,
		},
		{
			name:    "escaped underscores",
			reply:   `#shopping\_list #home\_decor`,
			maxTags: 6,
			want:    Tags{"shopping_list", "home_decor"},
			wantOK:  true,
		},
		{
			name:    "digits allowed",
			reply:   "#project2 #v10",
			maxTags: 6,
			want:    Tags{"project2", "v10"},
			wantOK:  true,
		},
		{
			name:    "trailing prose folded into words",
			reply:   "#idea #game and some chatter",
			maxTags: 6,
			want:    Tags{"idea", "game"},
			wantOK:  true,
		},
		{
			name:    "capped at max",
			reply:   "#a #b #c #d #e #f #g #h",
			maxTags: 6,
			want:    Tags{"a", "b", "c", "d", "e", "f"},
			wantOK:  true,
		},
		{
			name:    "zero max is unlimited",
			reply:   "#a #b #c #d #e #f #g #h",
			maxTags: 0,
			want:    Tags{"a", "b", "c", "d", "e", "f", "g", "h"},
			wantOK:  true,
		},
		{
			name:    "prose without leading hash",
			reply:   "Here are your tags: #idea #game",
			maxTags: 6,
			wantOK:  false,
		},
		{
			name:    "uppercase rejected",
			reply:   "#Idea #game",
			maxTags: 6,
			wantOK:  false,
		},
		{
			name:    "empty reply",
			reply:   "",
			maxTags: 6,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTags(tt.reply, tt.maxTags)
			if ok != tt.wantOK {
				t.Fatalf("ParseTags(%q) ok = %v, want %v", tt.reply, ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTags(%q) = %v, want %v", tt.reply, got, tt.want)
			}
		})
	}
}

func TestTagsRendering(t *testing.T) {
	tags := Tags{"shopping_list", "grocery"}

	if got := tags.String(); got != "#shopping_list #grocery" {
		t.Errorf("String() = %q", got)
	}
	if got := tags.EscapedMarkdown(); got != `\#shopping\_list \#grocery` {
		t.Errorf("EscapedMarkdown() = %q", got)
	}
}

// =============================================================================
// GENERATOR TESTS
// =============================================================================

func TestGenerateTagsMarkdownParsed(t *testing.T) {
	client, lastReq := stubCompletion(t, "#shopping_list #grocery")
	gen := NewTagsGenerator(client)

	got, err := gen.GenerateTagsMarkdown(context.Background(), "Buy milk and eggs")
	if err != nil {
		t.Fatalf("GenerateTagsMarkdown() error = %v", err)
	}
	if got != `\#shopping\_list \#grocery` {
		t.Errorf("GenerateTagsMarkdown() = %q", got)
	}

	req := lastReq()
	last := req.Messages[len(req.Messages)-1]
	if !strings.HasPrefix(last.Content, "Note:\n") {
		t.Errorf("note text not labeled, got %q", last.Content)
	}
	if !strings.HasSuffix(last.Content, "Buy milk and eggs") {
		t.Errorf("note text missing, got %q", last.Content)
	}
	if req.MaxTokens != tagsTokenBudget(DefaultMaxTags) {
		t.Errorf("request max_tokens = %d, want %d", req.MaxTokens, tagsTokenBudget(DefaultMaxTags))
	}
}

func TestGenerateTagsMarkdownFallback(t *testing.T) {
	client, _ := stubCompletion(t, "Sorry, that does not look like a note.")
	gen := NewTagsGenerator(client)

	got, err := gen.GenerateTagsMarkdown(context.Background(), "???")
	if err != nil {
		t.Fatalf("GenerateTagsMarkdown() error = %v", err)
	}
	if got != `Sorry, that does not look like a note\.` {
		t.Errorf("fallback = %q, want escaped raw reply", got)
	}
}

func TestGenerateTagsTwoOutcomes(t *testing.T) {
	client, _ := stubCompletion(t, "#idea #game")
	gen := NewTagsGenerator(client)

	tags, raw, err := gen.GenerateTags(context.Background(), "Platformer game about a cat")
	if err != nil {
		t.Fatalf("GenerateTags() error = %v", err)
	}
	if raw != "" {
		t.Errorf("raw = %q, want empty on parse path", raw)
	}
	if !reflect.DeepEqual(tags, Tags{"idea", "game"}) {
		t.Errorf("tags = %v", tags)
	}

	client2, _ := stubCompletion(t, "no tags here")
	gen2 := NewTagsGenerator(client2)

	tags2, raw2, err := gen2.GenerateTags(context.Background(), "gibberish")
	if err != nil {
		t.Fatalf("GenerateTags() error = %v", err)
	}
	if tags2 != nil {
		t.Errorf("tags = %v, want nil on fallback path", tags2)
	}
	if raw2 != "no tags here" {
		t.Errorf("raw = %q, want verbatim reply", raw2)
	}
}

func TestWithMaxTagsAdjustsBudget(t *testing.T) {
	client, lastReq := stubCompletion(t, "#a #b #c #d")
	gen := NewTagsGenerator(client).WithMaxTags(3)

	tags, _, err := gen.GenerateTags(context.Background(), "note")
	if err != nil {
		t.Fatalf("GenerateTags() error = %v", err)
	}
	if len(tags) != 3 {
		t.Errorf("tags = %v, want capped at 3", tags)
	}
	if got := lastReq().MaxTokens; got != tagsTokenBudget(3) {
		t.Errorf("request max_tokens = %d, want %d", got, tagsTokenBudget(3))
	}
}

func TestGenerateTagsPropagatesClientError(t *testing.T) {
	gen := NewTagsGenerator(stubFailure(t, http.StatusBadGateway))

	_, _, err := gen.GenerateTags(context.Background(), "note")
	if !mistral.IsTransport(err) {
		t.Errorf("error = %v, want transport error", err)
	}
}
