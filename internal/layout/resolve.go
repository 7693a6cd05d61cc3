package layout

import (
	"math"
	"sort"
)

// Hit is a resolved pixel.
type Hit struct {
	Strip Strip
	Index int
}

// Channel is shorthand for h.Strip.Channel.
func (h Hit) Channel() int { return h.Strip.Channel }

// Resolve finds the strip and pixel lighting up at distance. Strips with
// the largest offset are tried first; among equal offsets the earlier
// declared strip wins. The second return value is false when the distance
// lies in a gap, beyond all strips, or maps past the last pixel.
func Resolve(strips []Strip, distance float64) (Hit, bool) {
	sorted := make([]Strip, len(strips))
	copy(sorted, strips)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset > sorted[j].Offset
	})

	for _, s := range sorted {
		if !s.Contains(distance) {
			continue
		}

		count := s.Count()
		// Truncate toward the far end. Distances that land on a pixel
		// boundary may fall into the pixel before it after rounding.
		index := int(math.Floor((s.Offset - distance) * float64(s.Density)))
		if s.Reversed {
			index = count - index
		}

		// A reversed strip can yield count exactly at its near boundary.
		// That is one past the last pixel and is treated as out of range.
		if index < 0 || index >= count {
			return Hit{}, false
		}
		return Hit{Strip: s, Index: index}, true
	}

	return Hit{}, false
}
