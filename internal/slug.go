package internal

import (
	"strings"
	"unicode"
)

// Slugify derives a URL-safe slug from a term name using the canonical
// transform: lowercase, every run of non-alphanumeric characters collapsed
// to a single hyphen, leading and trailing hyphens trimmed.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen && b.Len() > 0:
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}
