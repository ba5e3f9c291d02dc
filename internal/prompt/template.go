// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt renders the static prompt templates used by the
// generators. Templates use {{name}} placeholders.
package prompt

import "strings"

// Render replaces every occurrence of "{{name}}" in template with the
// bound value. Placeholders without a binding are left untouched, so a
// template can be rendered in stages.
func Render(template string, bindings map[string]string) string {
	result := template
	for name, value := range bindings {
		result = strings.ReplaceAll(result, "{{"+name+"}}", value)
	}
	return result
}
