package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

func Normalize(s string) string {
	return norm.NFKD.String(s)
}

// StripMarks decomposes s and drops combining marks, so "coração" becomes
// "coracao".
func StripMarks(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range Normalize(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
