// Package app wires the configured sinks, state source, control loop and
// preview server into one runnable daemon.
package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coreman2200/pathglow/internal/config"
	"github.com/coreman2200/pathglow/internal/control"
	"github.com/coreman2200/pathglow/internal/diagnostics"
	"github.com/coreman2200/pathglow/internal/layout"
	"github.com/coreman2200/pathglow/internal/led"
	"github.com/coreman2200/pathglow/internal/preview"
	"github.com/coreman2200/pathglow/internal/render"
	"github.com/coreman2200/pathglow/internal/state"
)

type Core struct {
	Strips  []layout.Strip
	Sinks   led.Sinks
	Eng     *render.Engine
	Loop    *control.Loop
	Preview *preview.Server // nil when disabled

	cfg  *config.Config
	mqtt *state.MQTT
	log  zerolog.Logger
}

// InitCore opens everything cfg describes. On error nothing is left open.
func InitCore(cfg *config.Config, log zerolog.Logger) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	// 1) Strip layout
	strips, err := cfg.Layout()
	if err != nil {
		return nil, err
	}
	for _, s := range strips {
		log.Debug().Stringer("strip", s).Msg("strip configured")
	}

	// 2) Sinks
	lo, err := cfg.LEDOptions()
	if err != nil {
		return nil, err
	}
	sinks, err := led.Open(strips, lo, log)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s driver", cfg.Driver)
	}

	// 3) Engine
	eng, err := render.NewEngine(sinks, layout.Channels(strips), log)
	if err != nil {
		sinks.Close()
		return nil, err
	}

	c := &Core{Strips: strips, Sinks: sinks, Eng: eng, cfg: cfg, log: log}

	// 4) Preview, which doubles as the diagnostics sink
	var rep diagnostics.Reporter = diagnostics.Discard
	if cfg.Preview.Addr != "" {
		c.Preview = preview.New(strips, cfg.Driver, log)
		eng.SetTap(c.Preview.Tap)
		rep = c.Preview
	}

	// 5) State source
	src, err := c.source()
	if err != nil {
		sinks.Close()
		return nil, err
	}

	// 6) Control loop
	kind, _ := diagnostics.ParseKind(cfg.Diagnostics.Pattern)
	c.Loop = control.New(eng, strips, src, control.Options{
		Interval: cfg.Interval.D(),
		Pattern:  diagnostics.Plan{Kind: kind, Iterations: cfg.Diagnostics.Iterations},
		StepWait: cfg.Diagnostics.Wait.D(),
		Hold:     cfg.Diagnostics.Hold.D(),
		Reporter: rep,
	}, log)

	if c.Preview != nil {
		c.Preview.Watch("loop", func() any { return c.Loop.Stats() })
		c.Preview.Watch("render", func() any { return eng.Stats() })
	}
	return c, nil
}

func (c *Core) source() (state.Source, error) {
	s := c.cfg.State
	switch s.Source {
	case "traversal":
		t := s.Traversal
		return &state.Traversal{
			Start:     t.Start,
			Stop:      t.Stop,
			Step:      t.Step,
			NextColor: t.NextColor,
			PrevColor: t.PrevColor,
		}, nil
	case "file":
		return state.File{Path: s.File}, nil
	case "script":
		sc := s.Script
		src, err := state.NewScript(sc.Next, sc.Prev, sc.NextColor, sc.PrevColor, sc.Loop)
		if err != nil {
			return nil, errors.Wrap(err, "state script")
		}
		return src, nil
	case "mqtt":
		if s.MQTT.QoS < 0 || s.MQTT.QoS > 2 {
			return nil, errors.Errorf("mqtt qos %d out of range 0..2", s.MQTT.QoS)
		}
		c.mqtt = state.NewMQTT(state.MQTTOptions{
			Broker:   s.MQTT.Broker,
			Topic:    s.MQTT.Topic,
			ClientID: s.MQTT.ClientID,
			QoS:      byte(s.MQTT.QoS),
			MaxAge:   s.MQTT.MaxAge.D(),
		}, c.log)
		return c.mqtt, nil
	default:
		return nil, errors.Errorf("unknown state source %q", s.Source)
	}
}

// Close blanks and releases the sinks and drops the broker connection.
func (c *Core) Close() error {
	if c.mqtt != nil {
		c.mqtt.Close()
	}
	_ = c.Eng.Clear()
	return c.Sinks.Close()
}

// connect brings up sources that need a session before the first fetch.
func (c *Core) connect(ctx context.Context) error {
	if c.mqtt == nil {
		return nil
	}
	return c.mqtt.Connect(ctx)
}
