// Package input defines directional input sources and picks the dominant one each tick.
package input

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"
)

// Candidate is one source's reading. Movement uses screen coordinates with components in [-1, 1];
// Rotation is in [-1, 1] with positive meaning clockwise.
type Candidate struct {
	Movement r2.Point `json:"movement"`
	Rotation float64  `json:"rotation"`
}

// Source is anything that can report a Candidate, such as a keyboard, gamepad or touch stick.
type Source interface {
	Name() string
	Read(ctx context.Context) (Candidate, error)
}

// Select picks, independently, the movement with the largest magnitude and the rotation with the
// largest absolute value. On ties the earlier candidate wins. No candidates yield the zero value.
func Select(candidates []Candidate) Candidate {
	if len(candidates) == 0 {
		return Candidate{}
	}
	movement := lo.MaxBy(candidates, func(a, b Candidate) bool {
		return a.Movement.Norm() > b.Movement.Norm()
	})
	rotation := lo.MaxBy(candidates, func(a, b Candidate) bool {
		return math.Abs(a.Rotation) > math.Abs(b.Rotation)
	})
	return Candidate{Movement: movement.Movement, Rotation: rotation.Rotation}
}
