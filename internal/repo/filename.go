package repo

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxStemLen = 40
	maxExtLen  = 10
)

// SafeName derives a storage-safe stem and extension from a client-supplied
// filename. Only the last path element is used, diacritics are folded, and
// everything outside [A-Za-z0-9._-] becomes '_'. The extension keeps its dot
// and is lower-cased.
func SafeName(original string) (stem, ext string) {
	base := original
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	// transformers carry state, so a fresh chain per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, base); err == nil {
		base = folded
	}

	if i := strings.LastIndexByte(base, '.'); i > 0 {
		ext = "." + clean(strings.ToLower(base[i+1:]), false)
		base = base[:i]
	}
	if len(ext) <= 1 || len(ext) > maxExtLen+1 {
		ext = ""
	}

	stem = clean(base, true)
	if len(stem) > maxStemLen {
		stem = strings.TrimRight(stem[:maxStemLen], "._-")
	}
	if stem == "" {
		stem = "file"
	}
	return stem, ext
}

// clean keeps ASCII letters and digits (and ._- when punct is set), replaces
// other runs with a single '_' and trims separators from both ends.
func clean(s string, punct bool) string {
	var b strings.Builder
	lastSep := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastSep = false
		case punct && (r == '.' || r == '-' || r == '_'):
			b.WriteRune(r)
			lastSep = false
		case punct && !lastSep:
			b.WriteByte('_')
			lastSep = true
		}
	}
	return strings.Trim(b.String(), "._-")
}

// randomID returns 12 hex characters.
func randomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
