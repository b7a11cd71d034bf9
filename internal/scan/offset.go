package scan

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dshills/pawnls/pkg/types"
)

// ToOffset converts an editor position into a byte offset into text.
//
// Lines are found by counting '\n'. The character is counted in UTF-16
// code units within that line. Positions past the end of a line or of the
// text are clamped rather than rejected.
func ToOffset(text string, pos types.Position) int {
	offset := 0
	for line := 0; line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}

	units := 0
	for offset < len(text) && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		units += utf16.RuneLen(r)
		offset += size
	}
	return offset
}

// PositionAt is the inverse of ToOffset.
func PositionAt(text string, offset int) types.Position {
	if offset > len(text) {
		offset = len(text)
	}
	head := text[:offset]
	line := strings.Count(head, "\n")
	lineStart := strings.LastIndexByte(head, '\n') + 1
	return types.Position{Line: line, Character: Column(head[lineStart:], len(head)-lineStart)}
}

// Column returns the UTF-16 column of byte index i within line.
func Column(line string, i int) int {
	if i > len(line) {
		i = len(line)
	}
	units := 0
	for _, r := range line[:i] {
		units += utf16.RuneLen(r)
	}
	return units
}
