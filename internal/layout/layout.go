// Package layout describes where each LED strip sits along the walkway and
// maps distances on that shared axis onto strip pixels.
package layout

import (
	"fmt"
	"math"
)

// Strip is the placement of one physical strip along the shared axis.
// It covers the half-open interval (Offset-Length, Offset].
type Strip struct {
	// Offset is the coordinate of the strip's far end, in meters.
	Offset float64
	// Length is the strip length in meters.
	Length float64
	// Density is the number of pixels per meter.
	Density int
	// Channel is the output channel (GPIO pin) driving the strip.
	Channel int
	// Reversed is set when pixel 0 sits at the near end of the strip.
	Reversed bool
}

// Count returns the number of pixels on the strip.
func (s Strip) Count() int {
	return int(math.Round(float64(s.Density) * s.Length))
}

// Contains reports whether distance falls inside the strip's interval.
func (s Strip) Contains(distance float64) bool {
	return distance <= s.Offset && distance > s.Offset-s.Length
}

func (s Strip) String() string {
	return fmt.Sprintf("strip{ch=%d offset=%g length=%g density=%d reversed=%t}",
		s.Channel, s.Offset, s.Length, s.Density, s.Reversed)
}

// Channels returns the output channels of strips in declaration order.
func Channels(strips []Strip) []int {
	out := make([]int, len(strips))
	for i, s := range strips {
		out[i] = s.Channel
	}
	return out
}
