// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"context"
	"regexp"
	"strings"

	"github.com/jeranaias/tagbot/internal/markdown"
	"github.com/jeranaias/tagbot/internal/mistral"
)

// =============================================================================
// PROMPT
// =============================================================================

const tagsPrompt = `
You are notes tags generator. Your goal to help with tags generation for notes.

# Rules

First tag is a category tag. Example of category tags:
- #idea
- #shopping_list
- #recipe
- #must_watch / #must_read / #must_play
- #credentials
- #project

Second tag is a subcategory tag or regular tag. Example of subcategory tags:
- #startup
- #movie / #book / #game
- #grocery / #clothes / #electronics / #furniture ...
- #bank / #email / #social_media / #website

Other tags should be regular tags related to the note content.

Each note should have from 2 to 5 tags.

Tags should contain only lowercase latin letters, numbers and underscores.

Tags should be separated by spaces.

DO NOT GENERATE MORE THAN 5 TAGS!

YOU SHOULD RETURN ONLY A TAG LIST! DO NOT ADD ANYTHING ELSE!

# Examples

## Input
` + "`" + `Liste de courses Ikea:
- Table basse (la petite, pas trop chère)
- Étagère pour le salon (tu sais, celle qu'on a vu la dernière fois)
- Coussins colorés (prends des motifs sympas)
- Lampe de bureau (IMPORTANT, celle avec variateur de lumière si possible)
- Plantes artificielles (2 ou 3 pour égayer la cuisine)
- Cadres photo (tailles variées, choisis jolis)
- Boîtes de rangement (pour mes trucs de couture)
- Rideaux pour la chambre (couleur neutre, style cosy)` + "`" + `

## Response
` + "`" + `#shopping_list #ikea #furniture #home_decor #lighting` + "`" + `

## Input
` + "`" + `Home: 6, Jalan Taman Seputeh, Taman Seputeh, 58000 Kuala Lumpur, Wilayah Persekutuan Kuala Lumpur, Malaysia` + "`" + `

## Response
` + "`" + `#address #home #malasia #kuala_lumpur` + "`" + `

## Input
` + "`" + `Add feature: Dark mode` + "`" + `

## Response
` + "`" + `#idea #project #feature #dark_mode` + "`" + `
`

// tagsPrimer returns the fixed few-shot history for tag generation.
func tagsPrimer() []mistral.ChatMessage {
	return []mistral.ChatMessage{
		mistral.NewUserMessage("Platformer game about a cat"),
		mistral.NewAssistantMessage("#idea #game #platformer #cat"),
		mistral.NewUserMessage("Silicon Valley"),
		mistral.NewAssistantMessage("#must_watch #tv_show #comedy #geek"),
	}
}

const (
	// DefaultMaxTags caps a parsed tag list.
	DefaultMaxTags = 6

	// tokensPerTag is a rough per-tag output budget.
	tokensPerTag = 10

	// noteLabel prefixes the note text sent to the model.
	noteLabel = "Note:\n"
)

// tagsTokenBudget computes the completion budget for a tag list.
// Heuristic, not exact: about 10 tokens per tag.
func tagsTokenBudget(maxTags int) int {
	return maxTags * tokensPerTag
}

// =============================================================================
// TAGS
// =============================================================================

// tagsPattern anchors a reply that starts with one or more #tag tokens.
// Escaped underscores survive until the unescape pass, hence the
// backslash in the class.
var tagsPattern = regexp.MustCompile(`^(#[a-z0-9_\\]+ )*#[a-z0-9_\\]+`)

// Tags is an ordered tag list parsed from a model reply.
type Tags []string

// String renders the tags as a plain "#a #b #c" line.
func (t Tags) String() string {
	var b strings.Builder
	for i, tag := range t {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('#')
		b.WriteString(tag)
	}
	return b.String()
}

// EscapedMarkdown renders the tag line with every reserved character
// escaped, ready to send with MarkdownV2 parse mode.
func (t Tags) EscapedMarkdown() string {
	return markdown.Escape(t.String())
}

// ParseTags extracts a tag list from a model reply. The reply must
// start with at least one #tag token; otherwise ok is false and the
// caller falls back to presenting the raw text. maxTags caps the list,
// 0 means unlimited.
func ParseTags(reply string, maxTags int) (Tags, bool) {
	if !tagsPattern.MatchString(reply) {
		return nil, false
	}

	text := markdown.Unescape(reply)

	var tags Tags
	for _, segment := range strings.Split(text, "#") {
		word, _, _ := strings.Cut(strings.TrimSpace(segment), " ")
		if word == "" {
			continue
		}
		tags = append(tags, word)
		if maxTags > 0 && len(tags) == maxTags {
			break
		}
	}

	if len(tags) == 0 {
		return nil, false
	}
	return tags, true
}

// =============================================================================
// TAGS GENERATOR
// =============================================================================

// TagsGenerator turns note text into a tag line.
type TagsGenerator struct {
	client  *mistral.Client
	maxTags int
}

// NewTagsGenerator primes the given client for tag generation. The
// client must not be shared with other generators.
func NewTagsGenerator(client *mistral.Client) *TagsGenerator {
	client.WithMaxTokens(tagsTokenBudget(DefaultMaxTags)).
		WithHistory(tagsPrimer()).
		WithSystemMessage(tagsPrompt)

	return &TagsGenerator{
		client:  client,
		maxTags: DefaultMaxTags,
	}
}

// WithMaxTags overrides the tag cap and adjusts the token budget to
// match. 0 means unlimited. Call before sharing the generator.
func (g *TagsGenerator) WithMaxTags(maxTags int) *TagsGenerator {
	g.maxTags = maxTags
	g.client.WithMaxTokens(tagsTokenBudget(maxTags))
	return g
}

// GenerateTags asks the model for tags. Two success outcomes: a parsed
// tag list (raw == ""), or the verbatim model reply when it did not
// parse (tags == nil). err is only a transport or protocol failure.
func (g *TagsGenerator) GenerateTags(ctx context.Context, text string) (tags Tags, raw string, err error) {
	reply, err := g.client.Complete(ctx, strings.TrimSpace(text))
	if err != nil {
		return nil, "", err
	}

	if tags, ok := ParseTags(reply, g.maxTags); ok {
		return tags, "", nil
	}
	return nil, reply, nil
}

// GenerateTagsMarkdown generates tags for a note and renders the result
// as escaped MarkdownV2: the tag line on the parse path, the escaped
// model text on the fallback path.
func (g *TagsGenerator) GenerateTagsMarkdown(ctx context.Context, text string) (string, error) {
	tags, raw, err := g.GenerateTags(ctx, noteLabel+text)
	if err != nil {
		return "", err
	}

	if tags != nil {
		return tags.EscapedMarkdown(), nil
	}
	return markdown.Escape(raw), nil
}
