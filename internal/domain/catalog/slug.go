package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength is the maximum length of organization and category slugs
const MaxSlugLength = 100

// Slugify lower-cases s, strips diacritics and collapses every run of characters
// outside [a-z0-9] into a single hyphen.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// validateSlug checks an already-normalized slug
func validateSlug(field, slug string) error {
	if slug == "" {
		return invalidField(field, "cannot be empty")
	}
	if len(slug) > MaxSlugLength {
		return invalidField(field, "cannot exceed 100 characters")
	}
	if Slugify(slug) != slug {
		return invalidField(field, "can only contain lowercase letters, numbers, and single hyphens")
	}
	return nil
}
