// Package normalize canonicalizes user-supplied strings before they are
// validated or stored.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Email trims surrounding whitespace and lowercases the address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace, collapses inner runs of whitespace to
// a single space and composes the result to NFC, so "E" followed by a
// combining acute accent is stored (and counted) as the single rune "É".
// Case is preserved.
func Name(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Phone trims surrounding whitespace. Inner separators are kept so the
// stored value matches what the user typed.
func Phone(s string) string {
	return strings.TrimSpace(s)
}

// Text trims surrounding whitespace from free-text fields and composes
// them to NFC.
func Text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ObjectIDHex trims a hex id taken from a URL or form.
func ObjectIDHex(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
