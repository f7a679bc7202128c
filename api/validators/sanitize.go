package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims input and caps it at maxLen bytes without splitting a
// rune.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	end := 0
	for end < len(trimmed) {
		_, size := utf8.DecodeRuneInString(trimmed[end:])
		if end+size > maxLen {
			break
		}
		end += size
	}
	return trimmed[:end]
}
