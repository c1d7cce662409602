// Package htmlsanitize removes markup from client-supplied request
// metadata, such as the User-Agent header, before it is stored.
package htmlsanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// strict allows no elements at all; script and style bodies are dropped
// together with their tags.
var strict = bluemonday.StrictPolicy()

// maxPasses bounds PlainText on pathological, deeply re-encoded input.
const maxPasses = 8

// PlainText strips every HTML element from s and unescapes what is left,
// so "R&amp;D" and "R&D" are stored the same way. It repeats until the
// text stops changing, which makes PlainText(PlainText(s)) == PlainText(s)
// even for entity-encoded markup.
func PlainText(s string) string {
	for range maxPasses {
		if s == "" {
			return ""
		}
		out := html.UnescapeString(strict.Sanitize(s))
		if out == s {
			break
		}
		s = out
	}
	return s
}
