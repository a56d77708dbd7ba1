// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package prompt renders task description templates against an input mapping.
//
// Placeholders are written {name} where name is identifier-shaped. Doubled
// braces ({{ and }}) produce a literal brace. Any other brace is malformed and
// is reported by Validate; catalogs are validated once when they are loaded.
package prompt

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPlaceholder is wrapped by Validate for every malformed brace.
var ErrInvalidPlaceholder = stderrors.New("invalid placeholder")

var tokenPattern = regexp.MustCompile(`\{\{|\}\}|\{([A-Za-z_][A-Za-z0-9_]*)\}|[{}]`)

// Validate reports the first brace in tmpl that is neither an escape nor an
// identifier-shaped placeholder, such as {key words}, {1st} or a lone }.
func Validate(tmpl string) error {
	for _, loc := range tokenPattern.FindAllStringIndex(tmpl, -1) {
		if loc[1]-loc[0] != 1 {
			continue
		}
		return fmt.Errorf("%w %q at offset %d", ErrInvalidPlaceholder, snippet(tmpl, loc[0]), loc[0])
	}
	return nil
}

// snippet returns the brace at i and, for an opening brace, the text up to
// the next closing one.
func snippet(tmpl string, i int) string {
	if tmpl[i] == '{' {
		if j := strings.IndexByte(tmpl[i:], '}'); j > 0 {
			return tmpl[i : i+j+1]
		}
	}
	return tmpl[i : i+1]
}

// Missing returns the placeholders of tmpl absent from values, in template
// order and without duplicates. An empty result means Render will succeed.
func Missing(tmpl string, values map[string]string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, m := range tokenPattern.FindAllStringSubmatch(tmpl, -1) {
		name := m[1]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Render substitutes every placeholder in tmpl. Callers must check Missing
// first; an absent placeholder is rendered as the empty string. Malformed
// braces are copied through, so templates should pass Validate beforehand.
func Render(tmpl string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(tmpl))
	last := 0
	for _, loc := range tokenPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		b.WriteString(tmpl[last:loc[0]])
		switch token := tmpl[loc[0]:loc[1]]; {
		case token == "{{":
			b.WriteByte('{')
		case token == "}}":
			b.WriteByte('}')
		case loc[2] < 0:
			b.WriteString(token)
		default:
			b.WriteString(values[tmpl[loc[2]:loc[3]]])
		}
		last = loc[1]
	}
	b.WriteString(tmpl[last:])
	return b.String()
}

// Placeholders returns the distinct placeholder names in tmpl in order of
// first appearance.
func Placeholders(tmpl string) []string {
	return Missing(tmpl, nil)
}
