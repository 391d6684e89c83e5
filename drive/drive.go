// Package drive runs the input processing loop: read every input source, pick the dominant input,
// mix it into wheel values and hand those to the vehicle controller.
package drive

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"

	"go.viam.com/benben/input"
	"go.viam.com/benben/logging"
	"go.viam.com/benben/mixer"
	"go.viam.com/benben/protocol"
)

// DefaultTickRate matches a 60Hz display refresh.
const DefaultTickRate = 60

// MotorSink receives the mixed motor values once per tick.
type MotorSink interface {
	SetMotors(values protocol.MotorValues)
}

// Status is a snapshot of one tick, for display.
type Status struct {
	Input  input.Candidate      `json:"input"`
	Motors protocol.MotorValues `json:"motors"`
	At     time.Time            `json:"at"`
}

// Loop samples the sources at a fixed rate.
type Loop struct {
	sources  []input.Source
	sink     MotorSink
	interval time.Duration
	clock    clock.Clock
	logger   logging.Logger

	mixer  atomic.Pointer[mixer.Config]
	status atomic.Pointer[Status]
	failed map[string]bool
}

// NewLoop returns a loop reading sources in order; earlier sources win ties. A tickRate of zero
// means DefaultTickRate.
func NewLoop(
	sources []input.Source,
	sink MotorSink,
	mixerConf mixer.Config,
	tickRate float64,
	clk clock.Clock,
	logger logging.Logger,
) *Loop {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if clk == nil {
		clk = clock.New()
	}
	l := &Loop{
		sources:  sources,
		sink:     sink,
		interval: time.Duration(float64(time.Second) / tickRate),
		clock:    clk,
		logger:   logger,
		failed:   map[string]bool{},
	}
	l.mixer.Store(&mixerConf)
	l.status.Store(&Status{})
	return l
}

// SetMixerConfig swaps the mixer tuning used from the next tick on.
func (l *Loop) SetMixerConfig(conf mixer.Config) {
	l.mixer.Store(&conf)
}

// MixerConfig returns the tuning in use.
func (l *Loop) MixerConfig() mixer.Config {
	return *l.mixer.Load()
}

// Status returns the result of the last tick.
func (l *Loop) Status() Status {
	return *l.status.Load()
}

// Tick runs one iteration. It is exported for callers that drive the loop themselves.
func (l *Loop) Tick(ctx context.Context) Status {
	candidates := make([]input.Candidate, 0, len(l.sources))
	for _, src := range l.sources {
		candidate, err := src.Read(ctx)
		if err != nil {
			// Warn once per failure streak.
			if !l.failed[src.Name()] {
				l.logger.CWarnw(ctx, "input source failed, ignoring it", "source", src.Name(), "error", err)
				l.failed[src.Name()] = true
			}
			continue
		}
		if l.failed[src.Name()] {
			l.logger.CInfow(ctx, "input source recovered", "source", src.Name())
			delete(l.failed, src.Name())
		}
		candidates = append(candidates, candidate)
	}

	selected := input.Select(candidates)
	motors := l.mixer.Load().Mix(selected.Movement, selected.Rotation)
	l.sink.SetMotors(motors)

	status := Status{Input: selected, Motors: motors, At: l.clock.Now()}
	l.status.Store(&status)
	return status
}

// Run ticks until ctx is done. On return the sink is left at zero so the vehicle stops.
func (l *Loop) Run(ctx context.Context) {
	defer l.sink.SetMotors(protocol.MotorValues{})

	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()
	for {
		l.Tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
