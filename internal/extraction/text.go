package extraction

import (
	"strings"
	"unicode/utf8"
)

// before returns up to n characters of text ending at byte offset pos
func before(text string, pos, n int) string {
	start := pos
	for i := 0; i < n && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	return text[start:pos]
}

// after returns up to n characters of text starting at byte offset pos
func after(text string, pos, n int) string {
	end := pos
	for i := 0; i < n && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[pos:end]
}

// lineBefore returns the part of the line containing pos that precedes it
func lineBefore(text string, pos int) string {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	return text[start:pos]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}
