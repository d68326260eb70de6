//go:build !tinygo

package hal

import (
	"context"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	// For bounds the run time; 0 means run until interrupted.
	For time.Duration
}

// RunHeadless runs the kernel without opening a window: output goes to
// the logger only. start is called once with the HAL, must launch the
// kernel in the background, and returns the port so the runner can stop
// it. The call blocks until the context is cancelled or the configured
// duration elapses.
func RunHeadless(ctx context.Context, start func(h HAL) *RuntimePort, cfg HeadlessConfig) error {
	h := New()
	port := start(h)

	if cfg.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.For)
		defer cancel()
	}

	<-ctx.Done()
	if port != nil {
		port.Stop()
	}
	if err := ctx.Err(); err != context.DeadlineExceeded {
		return err
	}
	return nil
}
