package richtext

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// reserved covers line breaks, control characters and invisible format
// characters such as zero-width spaces and joiners.
var reserved = runes.Predicate(func(r rune) bool {
	if r == '\t' {
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || unicode.Is(unicode.Zl, r) || unicode.Is(unicode.Zp, r)
})

func canonicalSpace(r rune) rune {
	if r == '\t' || (r != ' ' && unicode.Is(unicode.Zs, r)) {
		return ' '
	}
	return r
}

// Normalize strips reserved characters, maps every space variant to U+0020
// and composes the result to NFC.
func Normalize(text string) string {
	if isPlainASCII(text) {
		return text
	}
	t := transform.Chain(runes.Remove(reserved), runes.Map(canonicalSpace), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c >= 0x7f {
			return false
		}
	}
	return true
}
