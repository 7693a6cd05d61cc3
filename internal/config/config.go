// Package config loads the daemon configuration from YAML or TOML.
package config

import (
	"bytes"
	"encoding"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/pathglow/internal/diagnostics"
	"github.com/coreman2200/pathglow/internal/layout"
	"github.com/coreman2200/pathglow/internal/led"
	"github.com/coreman2200/pathglow/internal/state"
)

// StripsEnv overrides the configured strips with a JSON array of strip
// records.
const StripsEnv = "PATHGLOW_STRIPS"

type Config struct {
	Driver     string   `yaml:"driver" toml:"driver"` // "ws281x" | "spi" | "serial" | "sim"
	ColorOrder string   `yaml:"color_order" toml:"color_order"`
	Brightness int      `yaml:"brightness" toml:"brightness"`
	Interval   Duration `yaml:"interval" toml:"interval"`

	Strips     []layout.Record `yaml:"strips" toml:"strips"`
	ChannelMap []Remap         `yaml:"channel_map" toml:"channel_map"`

	WS281x      WS281x      `yaml:"ws281x" toml:"ws281x"`
	SPI         SPI         `yaml:"spi" toml:"spi"`
	Serial      Serial      `yaml:"serial" toml:"serial"`
	State       State       `yaml:"state" toml:"state"`
	Diagnostics Diagnostics `yaml:"diagnostics" toml:"diagnostics"`
	Preview     Preview     `yaml:"preview" toml:"preview"`
}

// Remap rewires a declared channel onto the channel the strip is actually
// connected to.
type Remap struct {
	From int `yaml:"from" toml:"from"`
	To   int `yaml:"to" toml:"to"`
}

type WS281x struct {
	Frequency int `yaml:"frequency" toml:"frequency"`
	DMA       int `yaml:"dma" toml:"dma"`
}

type SPIPort struct {
	Channel int    `yaml:"channel" toml:"channel"`
	Dev     string `yaml:"dev" toml:"dev"` // e.g. /dev/spidev0.0
}

type SPI struct {
	Ports   []SPIPort `yaml:"ports" toml:"ports"`
	FreqKHz int       `yaml:"freq_khz" toml:"freq_khz"`
}

type Serial struct {
	Device string `yaml:"device" toml:"device"`
	Baud   int    `yaml:"baud" toml:"baud"`
}

type MQTT struct {
	Broker   string   `yaml:"broker" toml:"broker"`
	Topic    string   `yaml:"topic" toml:"topic"`
	ClientID string   `yaml:"client_id" toml:"client_id"`
	QoS      int      `yaml:"qos" toml:"qos"`
	MaxAge   Duration `yaml:"max_age" toml:"max_age"`
}

type Traversal struct {
	Start     float64 `yaml:"start" toml:"start"`
	Stop      float64 `yaml:"stop" toml:"stop"`
	Step      float64 `yaml:"step" toml:"step"`
	NextColor string  `yaml:"next_color" toml:"next_color"`
	PrevColor string  `yaml:"prev_color" toml:"prev_color"`
}

// Script keyframes the two distances over time, in seconds.
type Script struct {
	Loop      bool             `yaml:"loop" toml:"loop"`
	NextColor string           `yaml:"next_color" toml:"next_color"`
	PrevColor string           `yaml:"prev_color" toml:"prev_color"`
	Next      []state.Keyframe `yaml:"next" toml:"next"`
	Prev      []state.Keyframe `yaml:"prev" toml:"prev"`
}

type State struct {
	Source    string    `yaml:"source" toml:"source"` // "traversal" | "file" | "mqtt" | "script"
	File      string    `yaml:"file" toml:"file"`
	MQTT      MQTT      `yaml:"mqtt" toml:"mqtt"`
	Traversal Traversal `yaml:"traversal" toml:"traversal"`
	Script    Script    `yaml:"script" toml:"script"`
}

type Diagnostics struct {
	Pattern    string   `yaml:"pattern" toml:"pattern"`
	Iterations int      `yaml:"iterations" toml:"iterations"`
	Wait       Duration `yaml:"wait" toml:"wait"`
	Hold       Duration `yaml:"hold" toml:"hold"`
}

type Preview struct {
	Addr string `yaml:"addr" toml:"addr"` // empty disables the preview server
}

// Default returns the configuration used for every omitted key.
func Default() *Config {
	return &Config{
		Driver:     led.KindSim,
		ColorOrder: "RGB",
		Brightness: 255,
		Interval:   Duration(500 * time.Millisecond),
		WS281x: WS281x{
			Frequency: led.DefaultWS281xOptions.Frequency,
			DMA:       led.DefaultWS281xOptions.DMA,
		},
		SPI:    SPI{FreqKHz: int(led.DefaultSPIFreq / physic.KiloHertz)},
		Serial: Serial{Device: "/dev/ttyACM0", Baud: 115200},
		State: State{
			Source: "traversal",
			File:   "state.json",
			MQTT: MQTT{
				Broker:   "localhost:1883",
				Topic:    "walkway/state",
				ClientID: "pathglow",
			},
			Traversal: Traversal{
				Start:     3,
				Stop:      -0.5,
				Step:      0.1,
				NextColor: "#ff0000",
				PrevColor: "#00ff00",
			},
		},
		Diagnostics: Diagnostics{
			Pattern:    string(diagnostics.Rainbow),
			Iterations: 1,
			Wait:       Duration(20 * time.Millisecond),
			Hold:       Duration(5 * time.Second),
		},
	}
}

// Load reads path, picking the decoder from its extension, layers it over
// Default and applies the strips environment override.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(b)).Decode(c)
	case ".yaml", ".yml", ".json", "":
		err = yaml.Unmarshal(b, c)
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c as YAML.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	v := getenv(StripsEnv)
	if v == "" {
		return nil
	}
	var strips []layout.Record
	if err := yaml.Unmarshal([]byte(v), &strips); err != nil {
		return errors.Wrapf(err, "parse $%s", StripsEnv)
	}
	c.Strips = strips
	return nil
}

// Layout assembles the configured strips.
func (c *Config) Layout() ([]layout.Strip, error) {
	remap := make(map[int]int, len(c.ChannelMap))
	for _, r := range c.ChannelMap {
		remap[r.From] = r.To
	}
	return layout.Assemble(c.Strips, remap)
}

// LEDOptions translates the driver settings for led.Open.
func (c *Config) LEDOptions() (led.Options, error) {
	order, err := led.ParseOrder(c.ColorOrder)
	if err != nil {
		return led.Options{}, err
	}

	ports := make(map[int]string, len(c.SPI.Ports))
	for _, p := range c.SPI.Ports {
		ports[p.Channel] = p.Dev
	}

	return led.Options{
		Kind:  c.Driver,
		Order: order,
		WS281x: led.WS281xOptions{
			Frequency:  c.WS281x.Frequency,
			DMA:        c.WS281x.DMA,
			Brightness: c.Brightness,
		},
		SPIPorts:     ports,
		SPIFreq:      physic.Frequency(c.SPI.FreqKHz) * physic.KiloHertz,
		SerialDevice: c.Serial.Device,
		SerialBaud:   c.Serial.Baud,
	}, nil
}

// Validate checks the settings that Layout and LEDOptions do not.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.Brightness < 0 || c.Brightness > 255 {
		return errors.Errorf("brightness %d out of range 0..255", c.Brightness)
	}
	if len(c.Strips) == 0 {
		return errors.New("no strips configured")
	}
	switch c.State.Source {
	case "traversal", "file", "mqtt", "script":
	default:
		return errors.Errorf("unknown state source %q", c.State.Source)
	}
	if _, err := diagnostics.ParseKind(c.Diagnostics.Pattern); err != nil {
		return err
	}
	return nil
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }
