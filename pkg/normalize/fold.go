package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s, trims it and strips diacritics so that "LÖPANDE",
// "löpande" and "lopande" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToLower(out)
}

// numberReplacer drops group separators that locales put inside numbers.
var numberReplacer = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"\u2009", "",
	"'", "",
)

// cleanNumeric prepares a numeric string for strconv. A comma is a decimal
// separator unless a point is also present, in which case commas group
// thousands.
func cleanNumeric(s string) string {
	s = numberReplacer.Replace(strings.TrimSpace(s))
	if strings.Contains(s, ".") {
		return strings.ReplaceAll(s, ",", "")
	}
	return strings.Replace(s, ",", ".", 1)
}
