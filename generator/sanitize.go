package generator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var reTag = regexp.MustCompile(`<[^>]+>`)

// reWhitespace matches the unicode.IsSpace set so TrimSpace and collapsing agree.
var reWhitespace = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)

// Sanitize strips markup tags, collapses whitespace runs and trims the result.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = reTag.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func truncateTrim(s string, n int) string {
	return strings.TrimRightFunc(truncate(s, n), unicode.IsSpace)
}
