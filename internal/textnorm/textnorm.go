// Package textnorm folds accented pt-BR text for comparisons and file names.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks ("Alvenaria Metálica" -> "Alvenaria Metalica").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold returns an accent-free, upper-cased, trimmed key for case-insensitive lookups.
func Fold(s string) string {
	return strings.ToUpper(strings.TrimSpace(StripAccents(s)))
}

// FileSafe turns free text into a file-name segment: accents removed, runs of anything other
// than ASCII letters and digits collapsed to a single underscore, no leading/trailing underscore.
func FileSafe(s string) string {
	s = StripAccents(s)
	var b strings.Builder
	lastUnderscore := true
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
