// Package webstick is an input source fed by the touch sticks of the web page.
package webstick

import (
	"context"
	"sync"

	"github.com/golang/geo/r2"

	"go.viam.com/benben/input"
	"go.viam.com/benben/utils"
)

// Stick holds the latest touch stick positions.
type Stick struct {
	name string

	mu        sync.Mutex
	candidate input.Candidate
}

// New returns a centered stick.
func New(name string) *Stick {
	return &Stick{name: name}
}

// Name returns the source name.
func (s *Stick) Name() string {
	return s.name
}

// Set records stick positions. The left stick moves, the right stick's X rotates; its Y is unused.
// Each value is clamped to [-1, 1].
func (s *Stick) Set(lx, ly, rx, _ float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = input.Candidate{
		Movement: r2.Point{X: utils.Clamp(lx, -1, 1), Y: utils.Clamp(ly, -1, 1)},
		Rotation: utils.Clamp(rx, -1, 1),
	}
}

// Reset centers both sticks.
func (s *Stick) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = input.Candidate{}
}

// Read returns the latest positions.
func (s *Stick) Read(ctx context.Context) (input.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidate, nil
}
