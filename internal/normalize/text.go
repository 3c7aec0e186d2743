// Package normalize turns scraped free text into structured values.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText composes the text to NFC, collapses every whitespace run
// (newlines included) into one space and trims both ends. CleanText is
// idempotent.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// CleanTextPtr is CleanText for optional fields: empty output becomes nil.
func CleanTextPtr(s string) *string {
	v := CleanText(s)
	if v == "" {
		return nil
	}
	return &v
}
