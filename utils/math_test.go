package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestClamp(t *testing.T) {
	test.That(t, Clamp(2, -1, 1), test.ShouldEqual, 1.)
	test.That(t, Clamp(-3, -1, 1), test.ShouldEqual, -1.)
	test.That(t, Clamp(0.25, -1, 1), test.ShouldEqual, 0.25)
}

func TestScaleToUnit(t *testing.T) {
	test.That(t, ScaleToUnit(0, 0, 255), test.ShouldEqual, -1.)
	test.That(t, ScaleToUnit(255, 0, 255), test.ShouldEqual, 1.)
	test.That(t, ScaleToUnit(127.5, 0, 255), test.ShouldAlmostEqual, 0.)
	test.That(t, ScaleToUnit(-32768, -32768, 32767), test.ShouldEqual, -1.)
	test.That(t, ScaleToUnit(40000, -32768, 32767), test.ShouldEqual, 1.)
	test.That(t, ScaleToUnit(5, 3, 3), test.ShouldEqual, 0.)
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(0.1+0.2, 0.3, 1e-9), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(0.1, 0.2, 1e-9), test.ShouldBeFalse)
}
