package controller

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed is returned by Connect once the controller was closed.
var ErrClosed = errors.New("controller is closed")

// PreconditionError is returned by Connect when the controller is not Disconnected.
type PreconditionError struct {
	State State
}

// NewPreconditionError is used when connecting from a state other than Disconnected.
func NewPreconditionError(state State) error {
	return &PreconditionError{State: state}
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot connect while %s", e.State)
}

// DiscoveryError wraps any failure to find or connect to the vehicle.
type DiscoveryError struct {
	Err error
}

// NewDiscoveryError is used when the transport fails to find or connect to the vehicle.
func NewDiscoveryError(err error) error {
	return &DiscoveryError{Err: err}
}

func (e *DiscoveryError) Error() string {
	return "vehicle discovery failed: " + e.Err.Error()
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// TransportWriteError describes a failed frame write. It is only ever logged; the failure is
// visible to callers as a transition to Disconnected.
type TransportWriteError struct {
	Session string
	Err     error
}

func (e *TransportWriteError) Error() string {
	return fmt.Sprintf("frame write failed in session %s: %v", e.Session, e.Err)
}

func (e *TransportWriteError) Unwrap() error {
	return e.Err
}
