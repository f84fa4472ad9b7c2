// Package security holds input sanitization, validators and the persisted
// sliding-window rate limiter.
package security

import (
	"regexp"
	"strings"
)

const maxInputRunes = 1000

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsScheme      = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+=`)
)

// SanitizeInput trims s, strips angle brackets, javascript: schemes and
// inline event handlers, and caps the result at 1000 runes.
func SanitizeInput(s string) string {
	if s == "" {
		return ""
	}

	s = strings.TrimSpace(s)
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")

	if r := []rune(s); len(r) > maxInputRunes {
		s = string(r[:maxInputRunes])
	}
	return s
}
