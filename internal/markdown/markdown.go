// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown escapes and unescapes the Telegram MarkdownV2
// character set used for all outbound bot text.
package markdown

import "strings"

// reserved is the set of characters that must be backslash-escaped
// before sending text with MarkdownV2 parse mode.
const reserved = "\\*_`{}[]()#+-.!|"

// IsReserved reports whether r needs escaping in MarkdownV2 text.
func IsReserved(r rune) bool {
	return r < 128 && strings.ContainsRune(reserved, r)
}

// Escape prefixes every reserved character in s with a backslash.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if IsReserved(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Unescape removes the backslash in front of every reserved character.
//
// It is the exact left inverse of Escape: Unescape(Escape(s)) == s for
// any s. On arbitrary input it is best effort — a backslash followed by
// a non-reserved character is kept as-is, and no other Markdown parsing
// is attempted.
func Unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && IsReserved(runes[i+1]) {
			i++
			r = runes[i]
		}
		b.WriteRune(r)
	}
	return b.String()
}
