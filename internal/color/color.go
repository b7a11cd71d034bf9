// Package color finds color literals in Pawn source and renders picker
// results back in the style they were written in.
package color

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/scan"
	"github.com/dshills/pawnls/pkg/types"
)

// Color is an RGBA color with channels in [0, 1]
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
	Alpha float64 `json:"alpha"`
}

// Information is one color found in a document
type Information struct {
	Range types.Range
	Color Color
}

var (
	reHex      = regexp.MustCompile(`(?:0x[0-9A-Fa-f]{6,8}|\{[0-9A-Fa-f]{6}\}|[0-9A-Fa-f]{6})`)
	reGameText = regexp.MustCompile(`~([rgbwypl])~(?:~h~)*`)
)

// gameText holds the in-game text colors, keyed by their code letter
var gameText = map[byte]Color{
	'r': {0.61, 0.09, 0.10, 1},
	'g': {0.18, 0.35, 0.15, 1},
	'b': {0.17, 0.20, 0.43, 1},
	'y': {0.77, 0.65, 0.34, 1},
	'p': {0.57, 0.37, 0.85, 1},
	'w': {0.77, 0.77, 0.77, 1},
	'l': {0, 0, 0, 1},
}

// lightened lists the shades produced by one, two, ... trailing ~h~ codes
var lightened = map[byte][]Color{
	'r': {
		{0.86, 0.12, 0.14, 1},
		{0.86, 0.19, 0.22, 1},
		{0.86, 0.28, 0.32, 1},
		{0.86, 0.42, 0.49, 1},
		{0.86, 0.62, 0.73, 1},
	},
	'g': {
		{0.27, 0.53, 0.22, 1},
		{0.41, 0.80, 0.34, 1},
		{0.61, 0.87, 0.50, 1},
	},
	'b': {
		{0.25, 0.31, 0.65, 1},
		{0.38, 0.46, 0.87, 1},
		{0.57, 0.69, 0.87, 1},
	},
	'p': {
		{0.85, 0.56, 0.87, 1},
		{0.87, 0.84, 0.87, 1},
	},
	'y': {
		{0.87, 0.87, 0.50, 1},
		{0.87, 0.87, 0.75, 1},
	},
	'w': {
		{0.87, 0.87, 0.87, 1},
	},
}

// Find returns every color in text that the settings enable. Hex
// literals come first, then game text codes, each in document order.
func Find(text string, opts config.Color) []Information {
	var out []Information

	if opts.EnableColorPicker {
		for _, loc := range reHex.FindAllStringIndex(text, -1) {
			c, ok := Parse(text[loc[0]:loc[1]])
			if !ok {
				continue
			}
			out = append(out, Information{Range: span(text, loc), Color: c})
		}
	}

	if opts.EnableGameTextColors {
		for _, loc := range reGameText.FindAllStringSubmatchIndex(text, -1) {
			code := text[loc[2]]
			levels := strings.Count(text[loc[0]:loc[1]], "~h~")
			out = append(out, Information{Range: span(text, loc), Color: shade(code, levels)})
		}
	}
	return out
}

func span(text string, loc []int) types.Range {
	return types.Range{Start: scan.PositionAt(text, loc[0]), End: scan.PositionAt(text, loc[1])}
}

func shade(code byte, level int) Color {
	base := gameText[code]
	shades := lightened[code]
	if level > 0 && level-1 < len(shades) {
		return shades[level-1]
	}
	return base
}

// Parse decodes a literal written as 0xRRGGBB, 0xRRGGBBAA, {RRGGBB} or
// RRGGBB. A partial alpha byte is read as a single hex digit.
func Parse(literal string) (Color, bool) {
	var hex string
	switch {
	case strings.HasPrefix(literal, "0x"):
		hex = literal[2:]
	case strings.HasPrefix(literal, "{") && strings.HasSuffix(literal, "}"):
		hex = literal[1 : len(literal)-1]
		if len(hex) != 6 {
			return Color{}, false
		}
	default:
		hex = literal
	}
	if len(hex) < 6 {
		return Color{}, false
	}

	channel := func(s string) (float64, bool) {
		v, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return 0, false
		}
		return float64(v) / 255, true
	}

	r, okR := channel(hex[0:2])
	g, okG := channel(hex[2:4])
	b, okB := channel(hex[4:6])
	if !okR || !okG || !okB {
		return Color{}, false
	}
	c := Color{Red: r, Green: g, Blue: b, Alpha: 1}
	if len(hex) > 6 && strings.HasPrefix(literal, "0x") {
		a, ok := channel(hex[6:min(len(hex), 8)])
		if !ok {
			return Color{}, false
		}
		c.Alpha = a
	}
	return c, true
}

// Presentations renders c in the notation of original, the text the
// color was found in. Game text codes are kept as written.
func Presentations(c Color, original string, opts config.Color) []string {
	original = strings.TrimSpace(original)

	if opts.EnableGameTextColors && strings.HasPrefix(original, "~") && strings.HasSuffix(original, "~") {
		return []string{original}
	}
	if !opts.EnableColorPicker {
		return nil
	}

	switch {
	case strings.HasPrefix(original, "{") && strings.HasSuffix(original, "}"):
		return []string{"{" + RGB(c) + "}"}
	case strings.HasPrefix(original, "0x") && len(original) == 10:
		return []string{"0x" + RGBA(c)}
	case strings.HasPrefix(original, "0x"):
		return []string{"0x" + RGB(c)}
	default:
		return []string{RGB(c)}
	}
}

// RGB formats c as six upper case hex digits
func RGB(c Color) string {
	return fmt.Sprintf("%02X%02X%02X", byteOf(c.Red), byteOf(c.Green), byteOf(c.Blue))
}

// RGBA formats c as eight upper case hex digits
func RGBA(c Color) string {
	return RGB(c) + fmt.Sprintf("%02X", byteOf(c.Alpha))
}

func byteOf(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
