// Package controller owns the connection to the vehicle and the loop that streams motor command
// frames to it.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/benben/logging"
	"go.viam.com/benben/protocol"
	"go.viam.com/benben/transport"
	"go.viam.com/benben/utils"
)

// DefaultSendInterval is the target time between two frames.
const DefaultSendInterval = 50 * time.Millisecond

// Config tunes a Controller. Zero fields take their defaults.
type Config struct {
	ServiceID        transport.UUID16
	CharacteristicID transport.UUID16
	SendInterval     time.Duration
	// Clock paces the send loop and the slow discovery warnings.
	Clock clock.Clock
}

func (conf Config) withDefaults() Config {
	if conf.ServiceID == 0 {
		conf.ServiceID = transport.DefaultServiceID
	}
	if conf.CharacteristicID == 0 {
		conf.CharacteristicID = transport.DefaultCharacteristicID
	}
	if conf.SendInterval <= 0 {
		conf.SendInterval = DefaultSendInterval
	}
	if conf.Clock == nil {
		conf.Clock = clock.New()
	}
	return conf
}

// Controller connects to the vehicle on request and, while connected, writes the buffered motor
// values to it every send interval. A failed write ends the session; there is no reconnection.
type Controller struct {
	transport transport.Transport
	conf      Config
	logger    logging.Logger
	buffer    *MotorBuffer

	state atomic.Int32

	mu          sync.Mutex
	closed      bool
	session     *session
	stale       []utils.StoppableWorkers
	subscribers []subscriber
	nextSubID   int
}

type session struct {
	id      string
	char    transport.Characteristic
	workers utils.StoppableWorkers
}

type subscriber struct {
	id int
	fn func(State)
}

// New returns a Disconnected controller that will reach the vehicle through t.
func New(t transport.Transport, conf Config, logger logging.Logger) *Controller {
	return &Controller{
		transport: t,
		conf:      conf.withDefaults(),
		logger:    logger,
		buffer:    NewMotorBuffer(),
	}
}

// ConnectionState returns the current state without blocking.
func (c *Controller) ConnectionState() State {
	return State(c.state.Load())
}

// SetMotorValues replaces the values sent in the next frame. Values are not validated; they are
// clamped when encoded.
func (c *Controller) SetMotorValues(a, b, cc, d float64) {
	c.buffer.Store(protocol.MotorValues{a, b, cc, d})
}

// SetMotors is SetMotorValues for a MotorValues.
func (c *Controller) SetMotors(values protocol.MotorValues) {
	c.buffer.Store(values)
}

// MotorValues returns the values the next frame will carry.
func (c *Controller) MotorValues() protocol.MotorValues {
	return c.buffer.Load()
}

// Subscribe registers fn to be called with every new state, in transition order. fn runs while the
// controller is locked: it must not block, nor call Connect, Close or Subscribe. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers = append(c.subscribers, subscriber{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for idx, sub := range c.subscribers {
			if sub.id == id {
				c.subscribers = append(c.subscribers[:idx:idx], c.subscribers[idx+1:]...)
				return
			}
		}
	}
}

func (c *Controller) setStateLocked(state State) {
	if State(c.state.Swap(int32(state))) == state {
		return
	}
	for _, sub := range c.subscribers {
		sub.fn(state)
	}
}

// Connect finds the vehicle and starts streaming frames to it. It only succeeds from Disconnected;
// any other state returns a *PreconditionError and leaves the state alone. Discovery failures
// return a *DiscoveryError. Connect waits as long as discovery takes, so bound ctx to time it out.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if state := c.ConnectionState(); state != Disconnected {
		c.mu.Unlock()
		return NewPreconditionError(state)
	}
	stale := c.stale
	c.stale = nil
	c.setStateLocked(Connecting)
	c.mu.Unlock()

	// Loops of failed sessions have already returned. This only reaps them.
	for _, workers := range stale {
		workers.Stop()
	}

	c.logger.CInfow(ctx, "searching for vehicle", "service", c.conf.ServiceID, "characteristic", c.conf.CharacteristicID)
	slowDone := utils.SlowLoggerWithClock(ctx, c.conf.Clock,
		"still searching for vehicle", "service", c.conf.ServiceID.String(), c.logger)
	char, err := c.transport.DiscoverAndConnect(ctx, c.conf.ServiceID, c.conf.CharacteristicID)
	slowDone()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.setStateLocked(Disconnected)
		c.logger.CWarnw(ctx, "vehicle discovery failed", "error", err)
		return NewDiscoveryError(err)
	}
	if c.closed {
		return multierr.Combine(ErrClosed, char.Close())
	}

	sess := &session{id: uuid.NewString(), char: char}
	c.session = sess
	c.setStateLocked(Connected)
	sess.workers = utils.NewStoppableWorkersWithContext(
		logging.CopyDebugMode(ctx), func(ctx context.Context) { c.sendLoop(ctx, sess) })
	c.logger.CInfow(ctx, "connected to vehicle", "session", sess.id)
	return nil
}

// Close stops the send loop, disconnects and moves to Disconnected. It is safe to call more than
// once. Connect fails with ErrClosed afterwards.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sess := c.session
	c.session = nil
	stale := c.stale
	c.stale = nil
	c.mu.Unlock()

	var err error
	for _, workers := range stale {
		workers.Stop()
	}
	if sess != nil {
		sess.workers.Stop()
		err = sess.char.Close()
		c.logger.CInfow(ctx, "disconnected from vehicle", "session", sess.id)
	}

	c.mu.Lock()
	c.setStateLocked(Disconnected)
	c.mu.Unlock()
	return err
}

// nextSendDelay is how long to wait after a write that took elapsed so frames start one interval
// apart. Slow writes are followed immediately by the next one.
func nextSendDelay(interval, elapsed time.Duration) time.Duration {
	if wait := interval - elapsed; wait > 0 {
		return wait
	}
	return 0
}

func (c *Controller) sendLoop(ctx context.Context, sess *session) {
	for {
		start := c.conf.Clock.Now()
		frame := protocol.EncodeFrame(c.buffer.Load())
		if err := sess.char.Write(ctx, frame[:]); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.endSession(ctx, sess, &TransportWriteError{Session: sess.id, Err: err})
			return
		}
		c.logger.CDebugw(ctx, "sent frame", "frame", frame)

		if !c.sleep(ctx, nextSendDelay(c.conf.SendInterval, c.conf.Clock.Since(start))) {
			return
		}
	}
}

// sleep waits for d on the controller clock. It returns false if ctx is done first.
func (c *Controller) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := c.conf.Clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// endSession tears down a session whose send loop hit an error. It runs on the loop's goroutine,
// so the loop's workers are reaped later rather than stopped here.
func (c *Controller) endSession(ctx context.Context, sess *session, cause error) {
	c.logger.CErrorw(ctx, "lost connection to vehicle", "session", sess.id, "error", cause)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != sess {
		// Close got here first.
		return
	}
	c.session = nil
	c.stale = append(c.stale, sess.workers)
	if err := sess.char.Close(); err != nil {
		c.logger.CWarnw(ctx, "failed to disconnect after write failure", "session", sess.id, "error", err)
	}
	c.setStateLocked(Disconnected)
}
