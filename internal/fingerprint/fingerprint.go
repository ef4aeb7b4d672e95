// Package fingerprint turns extractor output into a stable digest and bounded
// display strings.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

const (
	// PreviewLimit bounds every preview string, stored or notified.
	PreviewLimit = 300
	// MaxDetailLines bounds the detail lines shown for one observation.
	MaxDetailLines = 40
)

// Empty is the fingerprint of an empty hash source, the state of an
// observation whose content was filtered out entirely.
var Empty = Of("")

// Of returns the hex-encoded SHA-256 digest of hashSource.
func Of(hashSource string) string {
	sum := sha256.Sum256([]byte(hashSource))
	return hex.EncodeToString(sum[:])
}

// BoundedPreview returns at most limit characters of text. A non-positive
// limit uses PreviewLimit. Truncation never splits a multi-byte character.
func BoundedPreview(text string, limit int) string {
	if limit <= 0 {
		limit = PreviewLimit
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// Preview is BoundedPreview with the default limit.
func Preview(text string) string {
	return BoundedPreview(text, PreviewLimit)
}

// NormalizeSpace collapses every run of whitespace to a single space and trims the ends.
func NormalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// CapLines returns at most limit lines. A non-positive limit uses MaxDetailLines.
func CapLines(lines []string, limit int) []string {
	if limit <= 0 {
		limit = MaxDetailLines
	}
	if len(lines) <= limit {
		return lines
	}
	return lines[:limit]
}
