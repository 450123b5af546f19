package overview

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// toValidUTF8 returns s unchanged if it is already valid UTF-8. Overview
// lines routinely carry Latin-1/Windows-1252 bytes from posters whose
// clients never declared a charset, so an invalid string is re-decoded
// as ISO-8859-1 (a strict superset of Windows-1252's printable range)
// before falling back to stripping the offending bytes outright.
func toValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, _, err := transform.String(charmap.ISO8859_1.NewDecoder(), s)
	if err != nil || !utf8.ValidString(decoded) {
		return strings.ToValidUTF8(s, "")
	}
	return decoded
}
