package app

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Run connects the state source and runs the control loop and the preview
// server until ctx is cancelled or the source is exhausted. The strips are
// left dark either way.
func (c *Core) Run(ctx context.Context) error {
	if err := c.connect(ctx); err != nil {
		return errors.Wrap(err, "connect state source")
	}

	g, ctx := errgroup.WithContext(ctx)
	// the loop ending on its own stops the preview as well
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	g.Go(func() error {
		defer stop()
		err := c.Loop.Run(loopCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if c.Preview != nil {
		g.Go(func() error {
			return c.Preview.ListenAndServe(loopCtx, c.cfg.Preview.Addr)
		})
	}

	return g.Wait()
}
