// Package fake implements a simulated vehicle that decodes and records every frame it receives.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/benben/logging"
	"go.viam.com/benben/protocol"
	"go.viam.com/benben/transport"
)

// TypeName is the transport type the simulated vehicle registers under.
const TypeName = "fake"

func init() {
	transport.Register(TypeName, transport.Registration[*Config]{
		Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (transport.Transport, error) {
			return NewVehicle(*conf, logger), nil
		},
	})
}

// Config describes how the simulated vehicle misbehaves.
type Config struct {
	ConnectDelay    time.Duration `json:"connect_delay"`
	FailConnect     bool          `json:"fail_connect"`
	FailAfterWrites int           `json:"fail_after_writes"`
	WriteLatency    time.Duration `json:"write_latency"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.ConnectDelay < 0 {
		return errors.Errorf("%s.connect_delay: must not be negative", path)
	}
	if conf.FailAfterWrites < 0 {
		return errors.Errorf("%s.fail_after_writes: must not be negative", path)
	}
	if conf.WriteLatency < 0 {
		return errors.Errorf("%s.write_latency: must not be negative", path)
	}
	return nil
}

var (
	// ErrVehicleNotFound is returned when the vehicle is configured to never be discovered.
	ErrVehicleNotFound = errors.New("simulated vehicle not found")
	// ErrLinkLost is returned by writes after fail_after_writes frames.
	ErrLinkLost = errors.New("simulated link lost")
)

// Vehicle is a simulated vehicle.
type Vehicle struct {
	conf   Config
	logger logging.Logger

	mu        sync.Mutex
	connected bool
	serviceID transport.UUID16
	writes    int
	badFrames int
	last      protocol.MotorValues
	closes    int
}

// NewVehicle returns a simulated vehicle.
func NewVehicle(conf Config, logger logging.Logger) *Vehicle {
	return &Vehicle{conf: conf, logger: logger}
}

// DiscoverAndConnect waits connect_delay and then connects, unless configured to fail.
func (v *Vehicle) DiscoverAndConnect(
	ctx context.Context,
	serviceID, characteristicID transport.UUID16,
) (transport.Characteristic, error) {
	if !goutils.SelectContextOrWait(ctx, v.conf.ConnectDelay) {
		return nil, ctx.Err()
	}
	if v.conf.FailConnect {
		return nil, ErrVehicleNotFound
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.connected {
		return nil, errors.New("simulated vehicle already has a connection")
	}
	v.connected = true
	v.serviceID = serviceID
	v.writes = 0
	v.logger.Debugw("simulated vehicle connected", "service", serviceID, "characteristic", characteristicID)
	return &characteristic{vehicle: v}, nil
}

// Connected reports whether a characteristic is currently open.
func (v *Vehicle) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

// WriteCount is the number of frames written in the current or last connection.
func (v *Vehicle) WriteCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writes
}

// BadFrameCount is the number of written frames that failed to decode.
func (v *Vehicle) BadFrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.badFrames
}

// CloseCount is the number of connections closed so far.
func (v *Vehicle) CloseCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closes
}

// LastMotorValues returns the values from the last valid frame.
func (v *Vehicle) LastMotorValues() protocol.MotorValues {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

type characteristic struct {
	vehicle *Vehicle
	once    sync.Once
}

func (c *characteristic) Write(ctx context.Context, frame []byte) error {
	v := c.vehicle
	if !goutils.SelectContextOrWait(ctx, v.conf.WriteLatency) {
		return ctx.Err()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.connected {
		return errors.New("simulated vehicle is not connected")
	}
	if v.conf.FailAfterWrites > 0 && v.writes >= v.conf.FailAfterWrites {
		return ErrLinkLost
	}
	v.writes++

	values, err := protocol.DecodeFrame(frame)
	if err != nil {
		v.badFrames++
		v.logger.Warnw("simulated vehicle dropped a frame", "error", err)
		return nil
	}
	v.last = values
	v.logger.Debugw("simulated vehicle frame", "motors", values)
	return nil
}

func (c *characteristic) Close() error {
	c.once.Do(func() {
		v := c.vehicle
		v.mu.Lock()
		defer v.mu.Unlock()
		v.connected = false
		v.closes++
		v.logger.Debugw("simulated vehicle disconnected", "service", v.serviceID)
	})
	return nil
}
