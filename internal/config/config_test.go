package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/pathglow/internal/layout"
	"github.com/coreman2200/pathglow/internal/led"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

const walkwayYAML = `
driver: ws281x
color_order: grb
brightness: 128
interval: 250ms
strips:
  - offset: 2.2
    length: 1.0
    leds_per_m: 30
    gpio_pin: 18
    reverse: false
  - offset: 1.0
    length: 1.0
    ledsPerM: 30
    gpioPin: 13
channel_map:
  - {from: 13, to: 19}
state:
  source: mqtt
  mqtt:
    broker: broker:1883
    topic: trail/state
    max_age: 10s
`

func TestLoadYAML(t *testing.T) {
	c, err := Load(write(t, "pathglow.yaml", walkwayYAML))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, led.KindWS281x, c.Driver)
	assert.Equal(t, 128, c.Brightness)
	assert.Equal(t, 250*time.Millisecond, c.Interval.D())
	assert.Equal(t, "mqtt", c.State.Source)
	assert.Equal(t, "trail/state", c.State.MQTT.Topic)
	assert.Equal(t, 10*time.Second, c.State.MQTT.MaxAge.D())

	// untouched keys keep their defaults
	assert.Equal(t, "pathglow", c.State.MQTT.ClientID)
	assert.Equal(t, 20*time.Millisecond, c.Diagnostics.Wait.D())

	strips, err := c.Layout()
	require.NoError(t, err)
	assert.Equal(t, []layout.Strip{
		{Offset: 2.2, Length: 1, Density: 30, Channel: 18},
		{Offset: 1.0, Length: 1, Density: 30, Channel: 19},
	}, strips)

	o, err := c.LEDOptions()
	require.NoError(t, err)
	assert.Equal(t, led.GRB, o.Order)
	assert.Equal(t, 128, o.WS281x.Brightness)
}

func TestLoadTOML(t *testing.T) {
	body := `
driver = "spi"
interval = "1s"

[[strips]]
offset = 2.2
length = 1.0
leds_per_m = 30
gpio_pin = 0
reverse = true

[spi]
freq_khz = 3000

[[spi.ports]]
channel = 0
dev = "/dev/spidev0.0"

[preview]
addr = ":8080"
`
	c, err := Load(write(t, "pathglow.toml", body))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, time.Second, c.Interval.D())
	assert.Equal(t, ":8080", c.Preview.Addr)

	strips, err := c.Layout()
	require.NoError(t, err)
	require.Len(t, strips, 1)
	assert.True(t, strips[0].Reversed)
	assert.Equal(t, 30, strips[0].Density)

	o, err := c.LEDOptions()
	require.NoError(t, err)
	assert.Equal(t, led.KindSPI, o.Kind)
	assert.Equal(t, "/dev/spidev0.0", o.SPIPorts[0])
	assert.Equal(t, 3000*physic.KiloHertz, o.SPIFreq)
}

func TestLoadScript(t *testing.T) {
	body := `
strips:
  - {offset: 2.2, length: 1.0, leds_per_m: 30, gpio_pin: 18}
state:
  source: script
  script:
    loop: true
    next_color: "#ffffff"
    next:
      - {t: 0, v: 3, ease: smooth}
      - {t: 30, v: 0}
`
	c, err := Load(write(t, "walk.yml", body))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	sc := c.State.Script
	assert.True(t, sc.Loop)
	assert.Equal(t, "#ffffff", sc.NextColor)
	require.Len(t, sc.Next, 2)
	assert.Equal(t, "smooth", sc.Next[0].Ease)
	assert.Equal(t, 30.0, sc.Next[1].T)
	assert.Empty(t, sc.Prev)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write(t, "pathglow.ini", "driver=sim"))
	assert.Error(t, err)

	_, err = Load(write(t, "pathglow.yaml", "interval: soon\n"))
	assert.Error(t, err)
}

func TestStripsEnvOverride(t *testing.T) {
	t.Setenv(StripsEnv, `[{"offset": 3, "length": 0.5, "ledsPerM": 60, "gpioPin": 12, "reverse": true}]`)

	c, err := Load(write(t, "pathglow.yaml", walkwayYAML))
	require.NoError(t, err)

	strips, err := c.Layout()
	require.NoError(t, err)
	assert.Equal(t, []layout.Strip{
		{Offset: 3, Length: 0.5, Density: 60, Channel: 12, Reversed: true},
	}, strips)
}

func TestStripsEnvInvalid(t *testing.T) {
	c := Default()
	err := c.applyEnv(func(string) string { return "[{" })
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := Default()
		c.Strips = []layout.Record{{"offset": 1, "length": 1, "leds_per_m": 30, "gpio_pin": 18}}
		return c
	}
	require.NoError(t, base().Validate())

	for name, mutate := range map[string]func(*Config){
		"no strips":     func(c *Config) { c.Strips = nil },
		"zero interval": func(c *Config) { c.Interval = 0 },
		"brightness":    func(c *Config) { c.Brightness = 300 },
		"state source":  func(c *Config) { c.State.Source = "redis" },
		"diag pattern":  func(c *Config) { c.Diagnostics.Pattern = "strobe" },
	} {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestBadColorOrder(t *testing.T) {
	c := Default()
	c.ColorOrder = "RRG"
	_, err := c.LEDOptions()
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.yaml")
	c := Default()
	c.Interval = Duration(750 * time.Millisecond)
	require.NoError(t, Save(p, c))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, c.Interval, got.Interval)
	assert.Equal(t, c.State.Traversal, got.State.Traversal)
}
