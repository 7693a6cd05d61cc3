// Package render builds per-channel frames from pixel assignments and
// commits them to the output drivers.
package render

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coreman2200/pathglow/internal/led"
	"github.com/coreman2200/pathglow/internal/rgb"
)

// Tap observes every committed frame. frame is canonical RGB and must not
// be retained past the call.
type Tap func(channel int, frame []byte)

// Engine is the sole writer of the output drivers. Every render starts
// from an all-off frame, so no pixel outlives the assignment that lit it.
type Engine struct {
	drv      led.Sinks
	channels []int
	log      zerolog.Logger

	mu    sync.Mutex
	tap   Tap
	stats Stats
}

// Stats describes the most recent commit.
type Stats struct {
	Channel  int     `json:"channel"`
	Lit      int     `json:"lit"`
	Skipped  int     `json:"skipped"`
	CommitMS float64 `json:"commit_ms"`
	Frames   uint64  `json:"frames"`
}

// NewEngine returns an Engine writing to drv. channels fixes the order
// used by RenderAll and Clear; channels without a driver are rejected.
func NewEngine(drv led.Sinks, channels []int, log zerolog.Logger) (*Engine, error) {
	for _, ch := range channels {
		if _, ok := drv[ch]; !ok {
			return nil, errors.Errorf("no driver for channel %d", ch)
		}
	}
	return &Engine{
		drv:      drv,
		channels: append([]int(nil), channels...),
		log:      log.With().Str("component", "render").Logger(),
	}, nil
}

// SetTap installs an observer for committed frames. nil removes it.
func (e *Engine) SetTap(t Tap) {
	e.mu.Lock()
	e.tap = t
	e.mu.Unlock()
}

// Stats returns the metrics of the last commit.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Channels returns the channels in render order.
func (e *Engine) Channels() []int {
	return append([]int(nil), e.channels...)
}

// Count returns the pixel count of channel, or 0 if it is unknown.
func (e *Engine) Count(channel int) int {
	d, ok := e.drv[channel]
	if !ok {
		return 0
	}
	return d.Count()
}

// Frame builds the full frame for a channel of count pixels: all off, then
// each assignment applied in order. Assignments outside [0,count) are not
// applied; their number is returned as skipped.
func Frame(count int, as []Assignment) (frame []rgb.Color, skipped int) {
	frame = make([]rgb.Color, count)
	for _, a := range as {
		if a.Index < 0 || a.Index >= count {
			skipped++
			continue
		}
		frame[a.Index] = a.Color
	}
	return frame, skipped
}

// Render rebuilds channel's frame from as and commits it in one write.
// Out-of-range indices are dropped with a warning.
func (e *Engine) Render(channel int, as []Assignment) error {
	d, ok := e.drv[channel]
	if !ok {
		return errors.Errorf("render: unknown channel %d", channel)
	}

	frame, skipped := Frame(d.Count(), as)
	if skipped > 0 {
		for _, a := range as {
			if a.Index < 0 || a.Index >= d.Count() {
				e.log.Warn().
					Int("channel", channel).
					Int("index", a.Index).
					Int("count", d.Count()).
					Msg("assignment outside strip ignored")
			}
		}
	}

	lit := 0
	for _, c := range frame {
		if !c.IsOff() {
			lit++
		}
	}

	if err := e.commit(channel, d, frame); err != nil {
		return err
	}

	e.mu.Lock()
	e.stats.Lit = lit
	e.stats.Skipped = skipped
	e.mu.Unlock()
	return nil
}

// RenderAll renders every channel, using groups for the assignments of
// each. Channels without assignments are committed all off. All channels
// are attempted; the first error is returned.
func (e *Engine) RenderAll(groups map[int][]Assignment) error {
	var first error
	for ch := range groups {
		if _, ok := e.drv[ch]; !ok {
			e.log.Warn().Int("channel", ch).Msg("assignments for unknown channel ignored")
		}
	}
	for _, ch := range e.channels {
		if err := e.Render(ch, groups[ch]); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Fill commits a caller-built frame to channel. Frames shorter than the
// strip are padded with off pixels; longer ones are truncated.
func (e *Engine) Fill(channel int, frame []rgb.Color) error {
	d, ok := e.drv[channel]
	if !ok {
		return errors.Errorf("fill: unknown channel %d", channel)
	}
	full := make([]rgb.Color, d.Count())
	copy(full, frame)
	return e.commit(channel, d, full)
}

// Clear commits an all-off frame to every channel.
func (e *Engine) Clear() error {
	return e.RenderAll(nil)
}

func (e *Engine) commit(channel int, d led.Driver, frame []rgb.Color) error {
	buf := make([]byte, len(frame)*3)
	for i, c := range frame {
		buf[i*3+0] = c.R
		buf[i*3+1] = c.G
		buf[i*3+2] = c.B
	}

	start := time.Now()
	if err := d.Write(buf); err != nil {
		return errors.Wrapf(err, "commit channel %d", channel)
	}
	ms := float64(time.Since(start).Microseconds()) / 1000.0

	e.mu.Lock()
	e.stats = Stats{Channel: channel, CommitMS: ms, Frames: e.stats.Frames + 1}
	tap := e.tap
	e.mu.Unlock()
	if tap != nil {
		tap(channel, buf)
	}
	return nil
}
