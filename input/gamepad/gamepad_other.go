//go:build !linux

package gamepad

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/benben/input"
	"go.viam.com/benben/logging"
)

// Gamepad is unavailable on this platform.
type Gamepad struct{}

// Open always fails on this platform.
func Open(conf Config, logger logging.Logger) (*Gamepad, error) {
	return nil, errors.New("gamepad input is only supported on linux")
}

// Name returns the source name.
func (g *Gamepad) Name() string {
	return "gamepad"
}

// Read always fails on this platform.
func (g *Gamepad) Read(ctx context.Context) (input.Candidate, error) {
	return input.Candidate{}, ErrDisconnected
}

// Close is a no-op.
func (g *Gamepad) Close() error {
	return nil
}
