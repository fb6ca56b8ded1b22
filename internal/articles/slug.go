package articles

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DeriveSlug turns a title into a lowercase, ASCII-normalized,
// hyphen-separated token sequence. Derivation is deterministic; diacritics
// are folded via NFD decomposition and runs of anything non-alphanumeric
// collapse to a single hyphen. A title with no alphanumeric content yields
// the empty string; callers apply the id-derived fallback at save time.
func DeriveSlug(title string) string {
	decomposed := norm.NFD.String(strings.ToLower(title))

	var builder strings.Builder
	pendingHyphen := false
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingHyphen = false
			builder.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition, drop silently
		default:
			pendingHyphen = true
		}
	}
	return builder.String()
}

// fallbackSlug names an article whose title normalizes to nothing. The token
// is derived from the article id so it stays deterministic per record.
func fallbackSlug(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	if compact == "" {
		return "untitled"
	}
	return "untitled-" + strings.ToLower(compact)
}
