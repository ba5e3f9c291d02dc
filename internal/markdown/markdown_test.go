// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import "testing"

// =============================================================================
// ESCAPE TESTS
// =============================================================================

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"asterisks", "*bold*", `\*bold\*`},
		{"underscores", "_em_", `\_em\_`},
		{"backslash", `a\b`, `a\\b`},
		{"brackets and parens", "[link](url)", `\[link\]\(url\)`},
		{"hash and dot", "#tag v1.2", `\#tag v1\.2`},
		{"plus minus bang pipe", "+1 -2 ! |", `\+1 \-2 \! \|`},
		{"braces and backtick", "{`x`}", "\\{\\`x\\`\\}"},
		{"unicode untouched", "héllo wörld", "héllo wörld"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.in); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello", "hello"},
		{"escaped asterisk", `\*bold\*`, "*bold*"},
		{"escaped backslash", `a\\b`, `a\b`},
		{"non-reserved escape kept", `a\qb`, `a\qb`},
		{"trailing backslash kept", `abc\`, `abc\`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unescape(tt.in); got != tt.want {
				t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Unescape must be an exact left inverse of Escape.
func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"plain",
		"#shopping_list #grocery",
		`*Processing message...*`,
		`backslash \ and *stars* and _unders_ and [all](#the) {rest}!`,
		"multi\nline\ntext.",
		"héllo wörld 你好",
		"",
	}

	for _, in := range inputs {
		if got := Unescape(Escape(in)); got != in {
			t.Errorf("Unescape(Escape(%q)) = %q, want original", in, got)
		}
	}
}

func TestIsReserved(t *testing.T) {
	for _, r := range "\\*_`{}[]()#+-.!|" {
		if !IsReserved(r) {
			t.Errorf("IsReserved(%q) = false, want true", r)
		}
	}
	for _, r := range "abc019 \n~>é" {
		if IsReserved(r) {
			t.Errorf("IsReserved(%q) = true, want false", r)
		}
	}
}
