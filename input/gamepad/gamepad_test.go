package gamepad

import (
	"context"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestSticks(t *testing.T) {
	s := newSticks(Config{AxisMin: -32768, AxisMax: 32767})
	// The right stick reports its own range.
	s.setRange(AxisRightX, 0, 255)

	s.set(AxisLeftX, 32767)
	s.set(AxisLeftY, -32768)
	s.set(AxisRightX, 0)

	got, err := s.read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Movement, test.ShouldResemble, r2.Point{X: 1, Y: -1})
	test.That(t, got.Rotation, test.ShouldEqual, -1.)

	s.set(AxisRightX, 255)
	got, err = s.read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Rotation, test.ShouldEqual, 1.)

	// A degenerate reported range is ignored.
	s.setRange(AxisLeftX, 5, 5)
	s.set(AxisLeftX, -32768)
	got, err = s.read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Movement.X, test.ShouldEqual, -1.)

	s.disconnect()
	_, err = s.read(context.Background())
	test.That(t, errors.Is(err, ErrDisconnected), test.ShouldBeTrue)
}

func TestIsGamepad(t *testing.T) {
	sticks := map[Axis]bool{AxisLeftX: true, AxisLeftY: true, AxisRightX: true, AxisRightY: true}
	pointer := map[Axis]bool{AxisLeftX: true, AxisLeftY: true}

	for _, tc := range []struct {
		name     string
		axes     map[Axis]bool
		expected bool
	}{
		{"Microsoft X-Box 360 pad", sticks, true},
		{"Sony Interactive Entertainment Wireless Controller", sticks, true},
		{"8BitDo SN30 Pro", sticks, true},
		{"SynPS/2 Synaptics TouchPad", pointer, false},
		{"ELAN1200:00 04F3:3090 Touchpad", pointer, false},
		{"Apple Inc. Magic Trackpad 2", pointer, false},
		// A touchpad claiming extra axes is still rejected by name.
		{"SynPS/2 Synaptics TouchPad", sticks, false},
		{"Logitech USB Optical Mouse", sticks, false},
		{"Generic gamepad", pointer, false},
		{"AT Translated Set 2 keyboard", map[Axis]bool{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			test.That(t, isGamepad(tc.name, tc.axes), test.ShouldEqual, tc.expected)
		})
	}
}
