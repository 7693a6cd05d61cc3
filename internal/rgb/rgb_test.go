package rgb

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ff0000", Color{255, 0, 0}},
		{"00ff00", Color{0, 255, 0}},
		{"#0000FF", Color{0, 0, 255}},
		{"#12ab9C", Color{0x12, 0xab, 0x9c}},
		{"#000000", Off},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParseHex(test.in)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, in := range []string{"#xyz", "", "#", "#f00", "ff00000", "#gg0000", "##ff000", "#1 2345", "#+12345"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseHex(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidColor), "got %v", err)
		})
	}
}

func TestHexRoundTrip(t *testing.T) {
	c := Color{0x0a, 0xb0, 0xff}
	assert.Equal(t, "#0ab0ff", c.Hex())
	assert.Equal(t, c, MustParseHex(c.Hex()))
}

func TestWheel(t *testing.T) {
	assert.Equal(t, Color{0, 255, 0}, Wheel(0))
	assert.Equal(t, Color{255, 0, 0}, Wheel(85))
	assert.Equal(t, Color{0, 0, 255}, Wheel(170))
}
