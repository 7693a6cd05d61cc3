//go:build linux && cgo

package led

import (
	"sync"

	"github.com/pkg/errors"
	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// ws281xDevice is one rpi_ws281x instance shared by up to two channels.
type ws281xDevice struct {
	mu    sync.Mutex
	dev   *ws2811.WS2811
	order Order
	open  int
}

// ws281xChannel is the Driver for one PWM channel of a ws281xDevice.
type ws281xChannel struct {
	d      *ws281xDevice
	index  int
	count  int
	closed bool
}

// OpenWS281x initializes one device driving the given pins. counts maps
// each GPIO pin to its pixel count.
func OpenWS281x(counts map[int]int, o WS281xOptions) (map[int]Driver, error) {
	layout, err := pwmLayout(counts)
	if err != nil {
		return nil, err
	}

	opt := ws2811.DefaultOptions
	opt.Frequency = o.Frequency
	opt.DmaNum = o.DMA
	opt.Channels = make([]ws2811.ChannelOption, 2)
	for pin, idx := range layout {
		opt.Channels[idx] = ws2811.ChannelOption{
			GpioPin:    pin,
			LedCount:   counts[pin],
			Brightness: o.Brightness,
			// Channels are permuted by Order, so the library must not.
			StripeType: ws2811.WS2811StripRGB,
			Gamma:      identityGamma(),
		}
	}
	for i := range opt.Channels {
		if opt.Channels[i].Gamma == nil {
			opt.Channels[i].Gamma = identityGamma()
		}
	}

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, errors.Wrap(err, "ws2811 make")
	}
	if err := dev.Init(); err != nil {
		return nil, errors.Wrap(err, "ws2811 init")
	}

	d := &ws281xDevice{dev: dev, order: o.Order, open: len(layout)}
	out := make(map[int]Driver, len(layout))
	for pin, idx := range layout {
		out[pin] = &ws281xChannel{d: d, index: idx, count: counts[pin]}
	}
	return out, nil
}

func identityGamma() []byte {
	g := make([]byte, 256)
	for i := range g {
		g[i] = byte(i)
	}
	return g
}

func (c *ws281xChannel) Count() int { return c.count }

func (c *ws281xChannel) Write(rgb []byte) error {
	if err := checkFrame(c.count, rgb); err != nil {
		return err
	}

	c.d.mu.Lock()
	defer c.d.mu.Unlock()

	if c.closed || c.d.dev == nil {
		return errors.New("ws281x closed")
	}

	leds := c.d.dev.Leds(c.index)
	for i := 0; i < c.count && i < len(leds); i++ {
		leds[i] = c.d.order.Word(rgb[i*3], rgb[i*3+1], rgb[i*3+2])
	}
	if err := c.d.dev.Render(); err != nil {
		return errors.Wrap(err, "ws2811 render")
	}
	return nil
}

// Close blanks the channel. The device is released once every channel on
// it is closed.
func (c *ws281xChannel) Close() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()

	if c.closed || c.d.dev == nil {
		return nil
	}
	c.closed = true

	leds := c.d.dev.Leds(c.index)
	for i := range leds {
		leds[i] = 0
	}
	err := c.d.dev.Render()

	c.d.open--
	if c.d.open == 0 {
		c.d.dev.Fini()
		c.d.dev = nil
	}
	return err
}
