// Package transport defines how benben reaches a vehicle: discover it, connect to its command
// characteristic and write frames to it. Implementations register themselves by type name.
package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// UUID16 is a 16 bit Bluetooth SIG style UUID.
type UUID16 uint16

// Identifiers advertised by the vehicle.
const (
	DefaultFilterServiceID  UUID16 = 0xAF30
	DefaultServiceID        UUID16 = 0xAE3A
	DefaultCharacteristicID UUID16 = 0xAE3B
)

// String renders the UUID as "0xae3a".
func (u UUID16) String() string {
	return fmt.Sprintf("0x%04x", uint16(u))
}

// MarshalText renders the UUID like String.
func (u UUID16) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText parses hex such as "0xAE3A" or "ae3a".
func (u *UUID16) UnmarshalText(text []byte) error {
	parsed, err := ParseUUID16(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ParseUUID16 parses a hex UUID with or without a 0x prefix.
func ParseUUID16(s string) (UUID16, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	val, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid 16 bit uuid %q", s)
	}
	return UUID16(val), nil
}

// Transport finds the vehicle and opens its command characteristic.
type Transport interface {
	// DiscoverAndConnect blocks until the vehicle is found and connected, or ctx is done.
	DiscoverAndConnect(ctx context.Context, serviceID, characteristicID UUID16) (Characteristic, error)
}

// Characteristic is an open command channel to a connected vehicle.
type Characteristic interface {
	// Write sends one frame. Delivery is not acknowledged by the vehicle.
	Write(ctx context.Context, frame []byte) error
	// Close disconnects from the vehicle.
	Close() error
}
