package webstick

import (
	"context"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/benben/input"
)

func TestStick(t *testing.T) {
	s := New("touch")
	test.That(t, s.Name(), test.ShouldEqual, "touch")

	got, err := s.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, input.Candidate{})

	s.Set(0.5, -2, 0.25, 1)
	got, err = s.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Movement, test.ShouldResemble, r2.Point{X: 0.5, Y: -1})
	test.That(t, got.Rotation, test.ShouldEqual, 0.25)

	s.Reset()
	got, err = s.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, input.Candidate{})
}
