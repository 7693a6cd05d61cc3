package render

import (
	"github.com/coreman2200/pathglow/internal/layout"
	"github.com/coreman2200/pathglow/internal/rgb"
)

// Assignment asks for one pixel of one channel to show a color in the
// current frame.
type Assignment struct {
	Channel int
	Index   int
	Color   rgb.Color
}

// Assign turns a resolved hit into an assignment.
func Assign(h layout.Hit, c rgb.Color) Assignment {
	return Assignment{Channel: h.Channel(), Index: h.Index, Color: c}
}

// Group partitions assignments by channel. Relative order within each
// channel is preserved and nothing is deduplicated: when two assignments
// target the same pixel, the later one wins at render time.
func Group(as []Assignment) map[int][]Assignment {
	out := make(map[int][]Assignment)
	for _, a := range as {
		out[a.Channel] = append(out[a.Channel], a)
	}
	return out
}
