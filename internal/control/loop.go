// Package control runs the display cycle: fetch the walker state, locate
// each marker on the strips and redraw every channel.
package control

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coreman2200/pathglow/internal/diagnostics"
	"github.com/coreman2200/pathglow/internal/layout"
	"github.com/coreman2200/pathglow/internal/render"
	"github.com/coreman2200/pathglow/internal/rgb"
	"github.com/coreman2200/pathglow/internal/state"
)

type Options struct {
	// Interval between cycles. Defaults to 500ms.
	Interval time.Duration

	// Pattern played while the state asks for diagnostics.
	Pattern diagnostics.Plan
	// StepWait is the delay between pattern frames, Hold the pause after
	// the last frame before the strips are cleared.
	StepWait time.Duration
	Hold     time.Duration

	Reporter diagnostics.Reporter
}

// Stats counts cycles since the loop started.
type Stats struct {
	Cycles      uint64 `json:"cycles"`
	Failures    uint64 `json:"failures"`
	Diagnostics uint64 `json:"diagnostics"`
}

type Loop struct {
	eng    *render.Engine
	strips []layout.Strip
	src    state.Source
	opts   Options
	log    zerolog.Logger

	cycles, failures, diags atomic.Uint64
}

func New(eng *render.Engine, strips []layout.Strip, src state.Source, opts Options, log zerolog.Logger) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.Pattern.Kind == "" {
		opts.Pattern.Kind = diagnostics.Rainbow
	}
	if opts.Reporter == nil {
		opts.Reporter = diagnostics.Discard
	}
	return &Loop{
		eng:    eng,
		strips: append([]layout.Strip(nil), strips...),
		src:    src,
		opts:   opts,
		log:    log.With().Str("component", "control").Logger(),
	}
}

func (l *Loop) Stats() Stats {
	return Stats{
		Cycles:      l.cycles.Load(),
		Failures:    l.failures.Load(),
		Diagnostics: l.diags.Load(),
	}
}

// Run cycles until ctx is cancelled or the source is exhausted. The
// strips are cleared on the way out. Exhaustion is not an error.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info().
		Dur("interval", l.opts.Interval).
		Int("strips", len(l.strips)).
		Msg("control loop started")

	defer func() {
		if err := l.eng.Clear(); err != nil {
			l.log.Error().Err(err).Msg("clear on exit")
		}
	}()

	tick := time.NewTicker(l.opts.Interval)
	defer tick.Stop()

	for {
		err := l.Cycle(ctx)
		switch {
		case errors.Is(err, state.ErrDone):
			l.log.Info().Uint64("cycles", l.cycles.Load()).Msg("state source exhausted")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			l.fail(err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// Cycle performs one fetch and redraw. Colors that do not parse and
// markers off the strips are skipped; every other failure is returned.
func (l *Loop) Cycle(ctx context.Context) error {
	l.cycles.Add(1)

	st, err := l.src.Fetch(ctx)
	if err != nil {
		if errors.Is(err, state.ErrDone) {
			return err
		}
		return errors.Wrap(err, "fetch state")
	}

	if st.Diagnostics {
		return l.diagnose(ctx)
	}

	var as []render.Assignment
	for _, t := range st.Targets() {
		c, err := rgb.ParseHex(t.Color)
		if err != nil {
			l.log.Warn().Err(err).Str("marker", t.Name).Msg("marker skipped")
			l.opts.Reporter.Report(diagnostics.Diagnostic{
				Time:     time.Now(),
				Severity: diagnostics.Warn,
				Code:     "bad_color",
				Summary:  "marker color is not a #rrggbb value",
				Evidence: map[string]any{"marker": t.Name, "color": t.Color},
			})
			continue
		}

		hit, ok := layout.Resolve(l.strips, t.Distance)
		if !ok {
			l.log.Debug().Str("marker", t.Name).Float64("distance", t.Distance).Msg("marker off the strips")
			continue
		}
		l.log.Debug().
			Str("marker", t.Name).
			Float64("distance", t.Distance).
			Int("channel", hit.Channel()).
			Int("index", hit.Index).
			Msg("marker resolved")
		as = append(as, render.Assign(hit, c))
	}

	return l.eng.RenderAll(render.Group(as))
}

// diagnose plays the test pattern on every channel, holds the last frame
// and clears.
func (l *Loop) diagnose(ctx context.Context) error {
	l.diags.Add(1)
	run := diagnostics.NewRunner(l.opts.Pattern)
	channels := l.eng.Channels()
	counts := make([]int, len(channels))
	for i, ch := range channels {
		counts[i] = l.eng.Count(ch)
	}
	l.log.Info().Str("pattern", string(run.Kind())).Int("steps", run.Steps(counts)).Msg("diagnostics")

	var first error
	for {
		frames, ok := run.Step(counts)
		if !ok {
			break
		}
		for i, ch := range channels {
			if err := l.eng.Fill(ch, frames[i]); err != nil && first == nil {
				first = err
			}
		}
		if err := sleep(ctx, l.opts.StepWait); err != nil {
			return err
		}
	}
	if err := sleep(ctx, l.opts.Hold); err != nil {
		return err
	}
	if err := l.eng.Clear(); err != nil && first == nil {
		first = err
	}
	return first
}

func (l *Loop) fail(err error) {
	l.failures.Add(1)
	l.log.Error().Err(err).Msg("cycle failed")
	l.opts.Reporter.Report(diagnostics.Diagnostic{
		Time:     time.Now(),
		Severity: diagnostics.Err,
		Code:     "cycle_failed",
		Summary:  "display cycle failed",
		Detail:   err.Error(),
		LikelyCauses: []string{
			"state source unreachable",
			"LED sink disconnected",
		},
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
