package sanitization

import (
	"regexp"
	"strings"
)

var lineBreaks = regexp.MustCompile(`[\r\n\t\v\f]+`)

// HeaderValue folds a user-supplied string onto a single line so it can be
// placed in a mail header.
func HeaderValue(input string) string {
	safe := lineBreaks.ReplaceAllString(input, " ")

	// Drop remaining control characters
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, safe)
}

// Email normalizes a submitted address before it is used as Reply-To.
func Email(input string) string {
	return strings.TrimSpace(HeaderValue(input))
}
