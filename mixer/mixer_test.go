package mixer

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/benben/protocol"
)

func assertMotors(t *testing.T, actual, expected protocol.MotorValues) {
	t.Helper()
	for idx := range expected {
		test.That(t, actual[idx], test.ShouldAlmostEqual, expected[idx])
	}
}

func TestMixCanonicalDirections(t *testing.T) {
	conf := DefaultConfig()

	// Right.
	assertMotors(t, conf.Mix(r2.Point{X: 1, Y: 0}, 0), protocol.MotorValues{-1, 1, -1, 1})
	// Forward. Screen coordinates, so up is negative Y.
	assertMotors(t, conf.Mix(r2.Point{X: 0, Y: -1}, 0), protocol.MotorValues{1, 1, 1, 1})
	// Backward.
	assertMotors(t, conf.Mix(r2.Point{X: 0, Y: 1}, 0), protocol.MotorValues{-1, -1, -1, -1})
	// Left.
	assertMotors(t, conf.Mix(r2.Point{X: -1, Y: 0}, 0), protocol.MotorValues{1, -1, 1, -1})
}

func TestMixBothSidesOfPi(t *testing.T) {
	conf := DefaultConfig()

	// Straight left lands on either +pi or -pi depending on the sign of the zero Y component. Both
	// sides of the table must agree there.
	negZero := math.Copysign(0, -1)
	assertMotors(t, conf.Mix(r2.Point{X: -1, Y: 0}, 0), protocol.MotorValues{1, -1, 1, -1})
	assertMotors(t, conf.Mix(r2.Point{X: -1, Y: negZero}, 0), protocol.MotorValues{1, -1, 1, -1})

	// Just either side of pi are continuous too.
	above := conf.Mix(r2.Point{X: -1, Y: 1e-9}, 0)
	below := conf.Mix(r2.Point{X: -1, Y: -1e-9}, 0)
	for idx := range above {
		test.That(t, above[idx], test.ShouldAlmostEqual, below[idx], 1e-6)
	}
}

func TestMixDiagonals(t *testing.T) {
	conf := DefaultConfig()
	diag := math.Sqrt(0.5)

	// Forward right only drives the B/D pair.
	assertMotors(t, conf.Mix(r2.Point{X: diag, Y: -diag}, 0), protocol.MotorValues{0, 1, 0, 1})
	// Forward left only drives A/C.
	assertMotors(t, conf.Mix(r2.Point{X: -diag, Y: -diag}, 0), protocol.MotorValues{1, 0, 1, 0})
	// Backward left.
	assertMotors(t, conf.Mix(r2.Point{X: -diag, Y: diag}, 0), protocol.MotorValues{0, -1, 0, -1})
	// Backward right.
	assertMotors(t, conf.Mix(r2.Point{X: diag, Y: diag}, 0), protocol.MotorValues{-1, 0, -1, 0})
}

func TestMixDeadzone(t *testing.T) {
	conf := DefaultConfig()

	assertMotors(t, conf.Mix(r2.Point{}, 0), protocol.MotorValues{})
	assertMotors(t, conf.Mix(r2.Point{X: 0.1, Y: -0.1}, 0.2), protocol.MotorValues{})
	assertMotors(t, conf.Mix(r2.Point{X: 0, Y: -0.2}, -0.2), protocol.MotorValues{})

	// Half way between the deadzone and full deflection.
	assertMotors(t, conf.Mix(r2.Point{X: 0, Y: -0.6}, 0), protocol.MotorValues{0.5, 0.5, 0.5, 0.5})
}

func TestMixMaxSpeed(t *testing.T) {
	conf := Config{Deadzone: 0, MaxSpeed: 0.5}
	assertMotors(t, conf.Mix(r2.Point{X: 0, Y: -1}, 0), protocol.MotorValues{0.5, 0.5, 0.5, 0.5})
	assertMotors(t, conf.Mix(r2.Point{X: 0, Y: -0.5}, 0), protocol.MotorValues{0.25, 0.25, 0.25, 0.25})
}

func TestMixRotation(t *testing.T) {
	conf := DefaultConfig()

	// Rotation alone.
	assertMotors(t, conf.Mix(r2.Point{}, 1), protocol.MotorValues{-1, 1, 1, -1})
	assertMotors(t, conf.Mix(r2.Point{}, -1), protocol.MotorValues{1, -1, -1, 1})
	assertMotors(t, conf.Mix(r2.Point{}, 0.6), protocol.MotorValues{-0.5, 0.5, 0.5, -0.5})

	// Saturated rotation replaces movement entirely.
	assertMotors(t, conf.Mix(r2.Point{X: 0, Y: -1}, 1), protocol.MotorValues{-1, 1, 1, -1})

	// Partial rotation blends with movement: forward at full speed, rotation at 0.5.
	assertMotors(t, conf.Mix(r2.Point{X: 0, Y: -1}, 0.6), protocol.MotorValues{0, 1, 1, 0})
}

func TestMixOutputsStayInRange(t *testing.T) {
	conf := DefaultConfig()
	for x := -1.0; x <= 1.0; x += 0.1 {
		for y := -1.0; y <= 1.0; y += 0.1 {
			for _, r := range []float64{-1, -0.5, 0, 0.5, 1} {
				out := conf.Mix(r2.Point{X: x, Y: y}.Normalize(), r)
				for _, v := range out {
					test.That(t, math.Abs(v), test.ShouldBeLessThanOrEqualTo, 1+1e-9)
				}
			}
		}
	}
}

func TestConfigValidate(t *testing.T) {
	test.That(t, DefaultConfig().Validate("mixer"), test.ShouldBeNil)
	test.That(t, Config{Deadzone: 0, MaxSpeed: 1}.Validate("mixer"), test.ShouldBeNil)

	err := Config{Deadzone: 1, MaxSpeed: 1}.Validate("mixer")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mixer.deadzone")

	err = Config{Deadzone: -0.1, MaxSpeed: 1}.Validate("mixer")
	test.That(t, err, test.ShouldNotBeNil)

	err = Config{Deadzone: 0.2, MaxSpeed: 0}.Validate("mixer")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mixer.max_speed")

	err = Config{Deadzone: 0.2, MaxSpeed: 1.5}.Validate("mixer")
	test.That(t, err, test.ShouldNotBeNil)
}
