// Package textclean strips relay formatting from message text before display.
package textclean

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	codeColor     = 0x19
	codeSetAttr   = 0x1A
	codeUnsetAttr = 0x1B
	codeReset     = 0x1C
)

// Clean removes relay color and attribute codes, then any terminal escape
// sequences, and collapses control characters to spaces.
func Clean(raw string) string {
	s := stripCodes(raw)
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

func stripCodes(s string) string {
	if strings.IndexFunc(s, isCode) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch s[i] {
		case codeColor:
			i = skipColor(s, i+1)
		case codeSetAttr:
			i += 2
		case codeUnsetAttr:
			// 0x1B doubles as ESC; only an attribute byte makes it a relay code.
			if i+1 < len(s) && isAttr(s[i+1]) {
				i += 2
				continue
			}
			b.WriteByte(s[i])
			i++
		case codeReset:
			i++
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

func isCode(r rune) bool {
	return r == codeColor || r == codeSetAttr || r == codeUnsetAttr || r == codeReset
}

func isAttr(c byte) bool {
	switch c {
	case '*', '!', '/', '_', '|':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// skipColor returns the index after the color spec that starts at i
// (just past the 0x19 byte).
func skipColor(s string, i int) int {
	if i >= len(s) {
		return i
	}
	switch c := s[i]; {
	case c == 'F' || c == 'B':
		return skipColorNumber(s, skipAttrs(s, i+1))
	case c == '*':
		i = skipColorNumber(s, skipAttrs(s, i+1))
		if i < len(s) && (s[i] == ',' || s[i] == '~') {
			i = skipColorNumber(s, i+1)
		}
		return i
	case c == 'b':
		return min(i+2, len(s))
	case c == 'E':
		return i + 1
	case c == codeReset:
		return i + 1
	case c == '@' || isDigit(c) || isAttr(c):
		return skipColorNumber(s, skipAttrs(s, i))
	}
	return i
}

func skipAttrs(s string, i int) int {
	for i < len(s) && isAttr(s[i]) {
		i++
	}
	return i
}

// skipColorNumber skips "NN" or "@NNNNN".
func skipColorNumber(s string, i int) int {
	n := 2
	if i < len(s) && s[i] == '@' {
		i++
		n = 5
	}
	for j := 0; j < n && i < len(s) && isDigit(s[i]); j++ {
		i++
	}
	return i
}
