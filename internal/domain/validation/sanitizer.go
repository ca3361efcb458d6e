package validation

import "strings"

// MaxFieldLength caps any free-text form field.
const MaxFieldLength = 4096

// Clean trims surrounding whitespace, drops NUL bytes and truncates s to
// MaxFieldLength bytes without splitting a UTF-8 sequence.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	if len(s) <= MaxFieldLength {
		return s
	}
	cut := MaxFieldLength
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
