// Package rgb converts textual colors into the canonical red/green/blue
// triple used throughout the renderer.
package rgb

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// ErrInvalidColor is returned for malformed color strings.
var ErrInvalidColor = errors.New("invalid color")

// Color is an 8-bit-per-channel color in red, green, blue order.
type Color struct{ R, G, B uint8 }

// Off is the all-zero color.
var Off = Color{}

// IsOff reports whether every channel is zero.
func (c Color) IsOff() bool { return c == Off }

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses exactly six hex digits with an optional leading '#'.
func ParseHex(s string) (Color, error) {
	digits := strings.TrimPrefix(s, "#")
	if len(digits) != 6 {
		return Off, errors.Wrapf(ErrInvalidColor, "%q: want 6 hex digits", s)
	}

	for _, r := range digits {
		if !isHexDigit(r) {
			return Off, errors.Wrapf(ErrInvalidColor, "%q: non-hex character %q", s, r)
		}
	}

	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return Off, errors.Wrapf(ErrInvalidColor, "%q: %v", s, err)
	}

	r, g, b := c.RGB255()
	return Color{r, g, b}, nil
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// MustParseHex is like ParseHex but panics on error.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Wheel maps pos in [0,255] onto a red → green → blue → red color wheel.
func Wheel(pos uint8) Color {
	switch {
	case pos < 85:
		return Color{pos * 3, 255 - pos*3, 0}
	case pos < 170:
		pos -= 85
		return Color{255 - pos*3, 0, pos * 3}
	default:
		pos -= 170
		return Color{0, pos * 3, 255 - pos*3}
	}
}
