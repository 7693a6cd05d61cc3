package layout

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleBothNamings(t *testing.T) {
	records := []Record{
		{"offset": 2.2, "length": 1, "leds_per_m": 30, "gpio_pin": 18, "reverse": false},
		{"offset": 1, "length": 1, "ledsPerM": 60, "gpioPin": 13, "reverse": true},
	}

	strips, err := Assemble(records, nil)
	require.NoError(t, err)
	require.Len(t, strips, 2)

	assert.Equal(t, Strip{Offset: 2.2, Length: 1, Density: 30, Channel: 18}, strips[0])
	assert.Equal(t, Strip{Offset: 1, Length: 1, Density: 60, Channel: 13, Reversed: true}, strips[1])
}

func TestAssembleSnakeCaseWins(t *testing.T) {
	records := []Record{
		{"offset": 1, "length": 1, "leds_per_m": 30, "ledsPerM": 60, "gpio_pin": 18, "gpioPin": 13},
	}

	strips, err := Assemble(records, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, strips[0].Density)
	assert.Equal(t, 18, strips[0].Channel)
}

func TestAssembleNumberTypes(t *testing.T) {
	records := []Record{
		{"offset": int64(2), "length": float32(0.5), "leds_per_m": uint64(60), "gpio_pin": int64(18)},
		{"offset": "1.25", "length": 1.0, "ledsPerM": 30.0, "gpioPin": 13, "reverse": "true"},
	}

	strips, err := Assemble(records, nil)
	require.NoError(t, err)
	assert.Equal(t, Strip{Offset: 2, Length: 0.5, Density: 60, Channel: 18}, strips[0])
	assert.Equal(t, Strip{Offset: 1.25, Length: 1, Density: 30, Channel: 13, Reversed: true}, strips[1])
}

func TestAssembleRemap(t *testing.T) {
	records := []Record{
		{"offset": 2.2, "length": 1, "leds_per_m": 30, "gpio_pin": 18},
		{"offset": 1, "length": 1, "leds_per_m": 30, "gpio_pin": 13},
		{"offset": 0, "length": 1, "leds_per_m": 30, "gpio_pin": 21},
	}

	strips, err := Assemble(records, map[int]int{13: 18, 18: 13})
	require.NoError(t, err)
	assert.Equal(t, []int{13, 18, 21}, Channels(strips))
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name  string
		rec   Record
		field string
	}{
		{"missing offset", Record{"length": 1, "leds_per_m": 30, "gpio_pin": 18}, "offset"},
		{"missing length", Record{"offset": 1, "leds_per_m": 30, "gpio_pin": 18}, "length"},
		{"missing density", Record{"offset": 1, "length": 1, "gpio_pin": 18}, "leds_per_m"},
		{"missing channel", Record{"offset": 1, "length": 1, "ledsPerM": 30}, "gpio_pin"},
		{"zero length", Record{"offset": 1, "length": 0, "leds_per_m": 30, "gpio_pin": 18}, "length"},
		{"zero density", Record{"offset": 1, "length": 1, "leds_per_m": 0, "gpio_pin": 18}, "leds_per_m"},
		{"fractional density", Record{"offset": 1, "length": 1, "ledsPerM": 30.5, "gpio_pin": 18}, "ledsPerM"},
		{"bad offset", Record{"offset": "far", "length": 1, "leds_per_m": 30, "gpio_pin": 18}, "offset"},
		{"bad reverse", Record{"offset": 1, "length": 1, "leds_per_m": 30, "gpio_pin": 18, "reverse": 3}, "reverse"},
		{"infinite length", Record{"offset": 1, "length": "inf", "leds_per_m": 30, "gpio_pin": 18}, "length"},
		{"overflowing length", Record{"offset": 1, "length": "1e400", "leds_per_m": 30, "gpio_pin": 18}, "length"},
		{"nan offset", Record{"offset": "nan", "length": 1, "leds_per_m": 30, "gpio_pin": 18}, "offset"},
		{"float32 nan length", Record{"offset": 1, "length": float32(math.NaN()), "leds_per_m": 30, "gpio_pin": 18}, "length"},
		{"float64 inf offset", Record{"offset": math.Inf(1), "length": 1, "leds_per_m": 30, "gpio_pin": 18}, "offset"},
		{"zero pixels", Record{"offset": 1, "length": 0.01, "leds_per_m": 30, "gpio_pin": 18}, "length"},
		{"too many pixels", Record{"offset": 1, "length": 1e6, "leds_per_m": 60, "gpio_pin": 18}, "length"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Assemble([]Record{test.rec}, nil)
			require.Error(t, err)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "got %T", err)
			assert.Equal(t, 0, cerr.Index)
			assert.Equal(t, test.field, cerr.Field)
		})
	}
}

func TestAssembleLargestStrip(t *testing.T) {
	strips, err := Assemble([]Record{{"offset": 1, "length": MaxPixels, "leds_per_m": 1, "gpio_pin": 18}}, nil)
	require.NoError(t, err)
	assert.Equal(t, MaxPixels, strips[0].Count())
}

func TestAssembleDuplicateChannel(t *testing.T) {
	records := []Record{
		{"offset": 2, "length": 1, "leds_per_m": 30, "gpio_pin": 18},
		{"offset": 1, "length": 1, "leds_per_m": 30, "gpio_pin": 13},
	}

	_, err := Assemble(records, map[int]int{13: 18})
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 1, cerr.Index)
	assert.Contains(t, cerr.Error(), "channel 18 already used by strip 0")
}

func TestAssembleEmpty(t *testing.T) {
	strips, err := Assemble(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, strips)
}
