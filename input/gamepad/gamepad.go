// Package gamepad reads a gamepad's sticks as drive input. The left stick moves and the right
// stick's X axis rotates.
package gamepad

import (
	"context"
	"strings"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/benben/input"
	"go.viam.com/benben/utils"
)

// Config selects the device and its raw axis range.
type Config struct {
	// Device is an event device path. Empty picks the first device that looks like a gamepad.
	Device string
	// AxisMin and AxisMax are used for axes whose range the device does not report.
	AxisMin int32
	AxisMax int32
}

// Axis identifies a stick axis.
type Axis int

// The axes read as input.
const (
	AxisLeftX Axis = iota
	AxisLeftY
	AxisRightX
	AxisRightY
)

// ErrDisconnected is returned by Read once the device went away.
var ErrDisconnected = errors.New("gamepad disconnected")

// isGamepad decides whether a device found while scanning drives the vehicle. Both sticks must be
// present; touchpads and mice report X and Y only, and keep their last position after release.
func isGamepad(name string, axes map[Axis]bool) bool {
	lower := strings.ToLower(name)
	for _, pointer := range []string{"touchpad", "trackpad", "mouse"} {
		if strings.Contains(lower, pointer) {
			return false
		}
	}
	return axes[AxisLeftX] && axes[AxisLeftY] && axes[AxisRightX] && axes[AxisRightY]
}

type axisRange struct {
	min, max float64
}

// sticks holds normalized axis positions.
type sticks struct {
	mu           sync.Mutex
	axes         [4]float64
	ranges       map[Axis]axisRange
	defaultRange axisRange
	disconnected bool
}

func newSticks(conf Config) *sticks {
	return &sticks{
		ranges:       map[Axis]axisRange{},
		defaultRange: axisRange{float64(conf.AxisMin), float64(conf.AxisMax)},
	}
}

func (s *sticks) setRange(axis Axis, lo, hi int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hi > lo {
		s.ranges[axis] = axisRange{float64(lo), float64(hi)}
	}
}

func (s *sticks) set(axis Axis, raw int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ranges[axis]
	if !ok {
		r = s.defaultRange
	}
	s.axes[axis] = utils.ScaleToUnit(float64(raw), r.min, r.max)
}

func (s *sticks) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = true
	s.axes = [4]float64{}
}

func (s *sticks) read(ctx context.Context) (input.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return input.Candidate{}, ErrDisconnected
	}
	return input.Candidate{
		Movement: r2.Point{X: s.axes[AxisLeftX], Y: s.axes[AxisLeftY]},
		Rotation: s.axes[AxisRightX],
	}, nil
}
