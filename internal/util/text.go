package util

import (
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC normalization so that composed and compatibility
// forms count as the same characters the platform counts.
func Normalize(s string) string {
	return norm.NFKC.String(s)
}

// TruncateRunes returns s cut to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
