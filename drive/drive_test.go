package drive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/benben/input"
	"go.viam.com/benben/logging"
	"go.viam.com/benben/mixer"
	"go.viam.com/benben/protocol"
	"go.viam.com/benben/testutils/inject"
)

func staticSource(name string, candidate input.Candidate) *inject.Source {
	return &inject.Source{
		NameFunc: func() string { return name },
		ReadFunc: func(ctx context.Context) (input.Candidate, error) { return candidate, nil },
	}
}

type recordingSink struct {
	mu     sync.Mutex
	values []protocol.MotorValues
}

func (rs *recordingSink) SetMotors(values protocol.MotorValues) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.values = append(rs.values, values)
}

func (rs *recordingSink) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.values)
}

func (rs *recordingSink) last() protocol.MotorValues {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.values[len(rs.values)-1]
}

func TestTickSelectsAndMixes(t *testing.T) {
	logger := logging.NewTestLogger(t)
	keyboard := staticSource("keyboard", input.Candidate{Movement: r2.Point{X: 0.3}})
	stick := staticSource("stick", input.Candidate{Movement: r2.Point{Y: -1}})
	sink := &recordingSink{}
	mock := clock.NewMock()

	loop := NewLoop([]input.Source{keyboard, stick}, sink, mixer.DefaultConfig(), 0, mock, logger)
	status := loop.Tick(context.Background())

	test.That(t, status.Input.Movement, test.ShouldResemble, r2.Point{Y: -1})
	for _, v := range status.Motors {
		test.That(t, v, test.ShouldAlmostEqual, 1.)
	}
	test.That(t, sink.last(), test.ShouldResemble, status.Motors)
	test.That(t, loop.Status(), test.ShouldResemble, status)
	test.That(t, status.At, test.ShouldEqual, mock.Now())
}

func TestTickSkipsFailingSources(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	brokenErr := errors.New("device unplugged")
	broken := &inject.Source{
		NameFunc: func() string { return "gamepad" },
		ReadFunc: func(ctx context.Context) (input.Candidate, error) { return input.Candidate{}, brokenErr },
	}
	stick := staticSource("stick", input.Candidate{Rotation: 1})
	sink := &recordingSink{}

	loop := NewLoop([]input.Source{broken, stick}, sink, mixer.DefaultConfig(), 0, clock.NewMock(), logger)
	loop.Tick(context.Background())
	loop.Tick(context.Background())

	test.That(t, sink.last(), test.ShouldResemble, protocol.MotorValues{-1, 1, 1, -1})
	test.That(t, logs.FilterMessage("input source failed, ignoring it").Len(), test.ShouldEqual, 1)

	brokenErr = nil
	loop.Tick(context.Background())
	test.That(t, logs.FilterMessage("input source recovered").Len(), test.ShouldEqual, 1)
}

func TestSetMixerConfig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	stick := staticSource("stick", input.Candidate{Movement: r2.Point{Y: -1}})
	sink := &recordingSink{}

	loop := NewLoop([]input.Source{stick}, sink, mixer.DefaultConfig(), 0, clock.NewMock(), logger)
	loop.SetMixerConfig(mixer.Config{Deadzone: 0.2, MaxSpeed: 0.5})
	test.That(t, loop.MixerConfig().MaxSpeed, test.ShouldEqual, 0.5)

	loop.Tick(context.Background())
	for _, v := range sink.last() {
		test.That(t, v, test.ShouldAlmostEqual, 0.5)
	}
}

func TestRunTicksAndStops(t *testing.T) {
	logger := logging.NewTestLogger(t)
	stick := staticSource("stick", input.Candidate{Movement: r2.Point{Y: -1}})
	sink := &recordingSink{}

	loop := NewLoop([]input.Source{stick}, sink, mixer.DefaultConfig(), 200, nil, logger)
	test.That(t, loop.interval, test.ShouldEqual, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for sink.count() < 3 {
		test.That(t, time.Now().Before(deadline), test.ShouldBeTrue)
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	// The vehicle is told to stop when the loop exits.
	test.That(t, sink.last(), test.ShouldResemble, protocol.MotorValues{})
}
