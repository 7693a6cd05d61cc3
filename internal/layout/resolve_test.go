package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walkway(reversed bool) []Strip {
	return []Strip{
		{Offset: 2.2, Length: 1, Density: 30, Channel: 18, Reversed: reversed},
		{Offset: 1.0, Length: 1, Density: 30, Channel: 13},
	}
}

func TestResolveWalkway(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		ok       bool
		channel  int
		index    int
	}{
		{"beyond all strips", 3.0, false, 0, 0},
		{"far strip", 2.0, true, 18, 6},
		{"near strip", 0.1, true, 13, 27},
		{"gap between strips", 1.1, false, 0, 0},
		{"far end of far strip", 2.2, true, 18, 0},
		{"far end of near strip", 1.0, true, 13, 0},
		{"near end of near strip", 0.0, false, 0, 0},
		{"behind all strips", -0.3, false, 0, 0},
	}

	strips := walkway(false)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hit, ok := Resolve(strips, test.distance)
			require.Equal(t, test.ok, ok, "hit %+v", hit)
			if !ok {
				return
			}
			assert.Equal(t, test.channel, hit.Channel())
			assert.Equal(t, test.index, hit.Index)
		})
	}
}

func TestResolveReversed(t *testing.T) {
	hit, ok := Resolve(walkway(true), 2.0)
	require.True(t, ok)
	assert.Equal(t, 18, hit.Channel())
	assert.Equal(t, 30*1-6, hit.Index)
}

func TestResolveReversedMirrorsForward(t *testing.T) {
	forward := walkway(false)
	reversed := walkway(true)

	for _, d := range []float64{2.15, 2.0, 1.73, 1.5, 1.31} {
		f, ok := Resolve(forward, d)
		require.True(t, ok, "forward %v", d)
		r, ok := Resolve(reversed, d)
		require.True(t, ok, "reversed %v", d)
		assert.Equal(t, f.Strip.Count()-f.Index, r.Index, "distance %v", d)
	}
}

func TestResolveReversedTopBoundaryOutOfRange(t *testing.T) {
	// Raw index 0 flips to the pixel count, one past the last pixel.
	_, ok := Resolve(walkway(true), 2.2)
	assert.False(t, ok)
}

func TestResolveLowerBoundaryBelongsOutward(t *testing.T) {
	strips := []Strip{
		{Offset: 2, Length: 1, Density: 10, Channel: 1},
		{Offset: 1, Length: 1, Density: 10, Channel: 2},
	}

	// 1.0 is the near end of the far strip and the far end of the next.
	hit, ok := Resolve(strips, 1.0)
	require.True(t, ok)
	assert.Equal(t, 2, hit.Channel())
	assert.Equal(t, 0, hit.Index)

	// With only the far strip configured, its near end is a gap.
	_, ok = Resolve(strips[:1], 1.0)
	assert.False(t, ok)
}

func TestResolveOverlapPrefersLargestOffset(t *testing.T) {
	strips := []Strip{
		{Offset: 1.5, Length: 1, Density: 10, Channel: 1},
		{Offset: 2.0, Length: 1, Density: 10, Channel: 2},
	}

	hit, ok := Resolve(strips, 1.2)
	require.True(t, ok)
	assert.Equal(t, 2, hit.Channel())
	assert.Equal(t, 8, hit.Index)
}

func TestResolveTiesKeepDeclarationOrder(t *testing.T) {
	strips := []Strip{
		{Offset: 1, Length: 1, Density: 10, Channel: 7},
		{Offset: 1, Length: 1, Density: 10, Channel: 3},
	}

	for i := 0; i < 10; i++ {
		hit, ok := Resolve(strips, 0.5)
		require.True(t, ok)
		assert.Equal(t, 7, hit.Channel())
	}
}

func TestResolveDoesNotReorderInput(t *testing.T) {
	strips := []Strip{
		{Offset: 1, Length: 1, Density: 10, Channel: 1},
		{Offset: 3, Length: 1, Density: 10, Channel: 2},
	}
	Resolve(strips, 2.5)
	assert.Equal(t, []int{1, 2}, Channels(strips))
}

func TestResolveEmpty(t *testing.T) {
	_, ok := Resolve(nil, 1)
	assert.False(t, ok)
}

func TestResolveInteriorAlwaysHits(t *testing.T) {
	strips := walkway(false)
	for _, s := range strips {
		for i := 1; i < 100; i++ {
			d := s.Offset - s.Length*float64(i)/100
			hit, ok := Resolve(strips, d)
			require.True(t, ok, "distance %v", d)
			assert.Equal(t, s.Channel, hit.Channel())
			assert.True(t, hit.Index >= 0 && hit.Index < s.Count(), "index %d", hit.Index)
		}
	}
}

func TestResolveGapNeverHits(t *testing.T) {
	strips := walkway(false)
	for d := 1.01; d < 1.2; d += 0.01 {
		_, ok := Resolve(strips, d)
		assert.False(t, ok, "distance %v", d)
	}
}

func TestResolveTruncatesOnPixelBoundary(t *testing.T) {
	// (1.0-0.9)*30 evaluates just below 3.
	h, ok := Resolve(walkway(false), 0.9)
	require.True(t, ok)
	assert.Equal(t, 13, h.Strip.Channel)
	assert.Equal(t, 2, h.Index)

	h, ok = Resolve(walkway(false), 0.8999)
	require.True(t, ok)
	assert.Equal(t, 3, h.Index)
}

func TestStripCount(t *testing.T) {
	assert.Equal(t, 30, Strip{Length: 1, Density: 30}.Count())
	assert.Equal(t, 45, Strip{Length: 1.5, Density: 30}.Count())
	assert.Equal(t, 3, Strip{Length: 0.1, Density: 30}.Count())
}
