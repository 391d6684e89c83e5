package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/benben/logging"
)

// SlowLogger warns periodically while an operation is still running: after 2s, again 3s later and
// every 5s from then on. Call the returned function when the operation finishes.
func SlowLogger(ctx context.Context, msg, fieldName, fieldVal string, logger logging.Logger) func() {
	return SlowLoggerWithClock(ctx, clock.New(), msg, fieldName, fieldVal, logger)
}

// SlowLoggerWithClock is SlowLogger driven by the given clock.
func SlowLoggerWithClock(
	ctx context.Context,
	clk clock.Clock,
	msg, fieldName, fieldVal string,
	logger logging.Logger,
) func() {
	waits := []time.Duration{2 * time.Second, 3 * time.Second, 5 * time.Second}
	timer := clk.Timer(waits[0])
	startTime := clk.Now()

	ctxWithCancel, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for tick := 1; ; tick++ {
			select {
			case <-timer.C:
				elapsed := clk.Since(startTime).Round(time.Second).String()
				timer.Reset(waits[min(tick, len(waits)-1)])
				logger.CWarnw(ctx, msg, fieldName, fieldVal, "time_elapsed", elapsed)
			case <-ctxWithCancel.Done():
				return
			}
		}
	}()
	return func() {
		cancel()
		timer.Stop()
		<-done
	}
}
