package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// sanitize strips terminal escape sequences and control characters from
// text that came over the wire, so page titles cannot repaint the screen.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\x1b' {
			i = skipEscape(runes, i)
			continue
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// skipEscape returns the index of the last rune of the escape sequence that
// starts at runes[i].
func skipEscape(runes []rune, i int) int {
	if i+1 >= len(runes) {
		return i
	}
	switch runes[i+1] {
	case '[': // CSI: parameters then a final byte in 0x40–0x7E
		for j := i + 2; j < len(runes); j++ {
			if runes[j] >= 0x40 && runes[j] <= 0x7e {
				return j
			}
		}
		return len(runes) - 1
	case ']': // OSC: terminated by BEL or ESC \
		for j := i + 2; j < len(runes); j++ {
			if runes[j] == '\x07' {
				return j
			}
			if runes[j] == '\x1b' && j+1 < len(runes) && runes[j+1] == '\\' {
				return j + 1
			}
		}
		return len(runes) - 1
	default:
		return i + 1
	}
}

// truncateName shortens s to at most maxWidth terminal cells, ending in
// "..." when there is room for it.
func truncateName(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
