// Package ingest turns help-desk source payloads into indexed text chunks.
package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	markupPattern     = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)
)

// Clean strips markup tags and collapses whitespace. Any <...> sequence is
// removed whether or not the surrounding markup is well formed.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = markupPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// textLen counts characters, not bytes, so thresholds behave the same for
// non-ASCII documentation.
func textLen(s string) int {
	return utf8.RuneCountInString(s)
}
