// Package sanitizer normalizes user-supplied text before validation and persistence.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims surrounding whitespace and collapses internal runs of
// whitespace (including newlines and tabs) into single spaces.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeEmail lowercases the address after trimming; addresses are stored lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeFreeText trims surrounding whitespace and strips control characters,
// preserving internal line breaks for multi-line notes and review text.
func NormalizeFreeText(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
