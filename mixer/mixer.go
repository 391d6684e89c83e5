// Package mixer turns a movement vector and a rotation value into four wheel drive values for a
// vehicle whose wheels are laid out A (front left), B (front right), C (rear right), D (rear left)
// with diagonal pairs A/C and B/D.
package mixer

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/benben/protocol"
)

// Defaults tuned for the stock vehicle.
const (
	DefaultDeadzone = 0.2
	DefaultMaxSpeed = 1.0
)

// Config holds the mixer tuning.
type Config struct {
	// Deadzone is the stick magnitude below which input is ignored.
	Deadzone float64 `json:"deadzone"`
	// MaxSpeed scales every output.
	MaxSpeed float64 `json:"max_speed"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{Deadzone: DefaultDeadzone, MaxSpeed: DefaultMaxSpeed}
}

// Validate ensures all parts of the config are valid.
func (conf Config) Validate(path string) error {
	if conf.Deadzone < 0 || conf.Deadzone >= 1 {
		return goutils.NewConfigValidationError(path+".deadzone",
			errors.Errorf("must be in [0, 1), got %v", conf.Deadzone))
	}
	if conf.MaxSpeed <= 0 || conf.MaxSpeed > 1 {
		return goutils.NewConfigValidationError(path+".max_speed",
			errors.Errorf("must be in (0, 1], got %v", conf.MaxSpeed))
	}
	return nil
}

// scale rescales a magnitude past the deadzone to [0, MaxSpeed].
func (conf Config) scale(magnitude float64) float64 {
	if magnitude <= conf.Deadzone {
		return 0
	}
	return (magnitude - conf.Deadzone) / (1 - conf.Deadzone) * conf.MaxSpeed
}

// Mix computes wheel values. Screen coordinates are assumed for movement, so negative Y is
// forward. Positive rotation turns clockwise. When both are present, the rotation speed decides how
// much of the result is rotation.
func (conf Config) Mix(movement r2.Point, rotation float64) protocol.MotorValues {
	move := conf.translate(movement)

	rotSpeed := conf.scale(math.Abs(rotation))
	if rotSpeed == 0 {
		return move
	}
	dir := sign(rotation)
	turn := protocol.MotorValues{-dir, dir, dir, -dir}

	var out protocol.MotorValues
	for idx := range out {
		out[idx] = move[idx]*(1-rotSpeed) + turn[idx]*rotSpeed
	}
	return out
}

func (conf Config) translate(movement r2.Point) protocol.MotorValues {
	length := movement.Norm()
	speed := conf.scale(length)
	if speed <= 0 {
		return protocol.MotorValues{}
	}

	angle := math.Atan2(-movement.Y/length, movement.X/length)

	var ac, bd float64
	switch {
	case angle <= -math.Pi/2:
		v := (angle + math.Pi) / (math.Pi / 2)
		ac, bd = -2*v+1, -1
	case angle <= 0:
		v := (angle + math.Pi/2) / (math.Pi / 2)
		ac, bd = -1, 2*v-1
	case angle <= math.Pi/2:
		v := angle / (math.Pi / 2)
		ac, bd = 2*v-1, 1
	default:
		v := (angle - math.Pi/2) / (math.Pi / 2)
		ac, bd = 1, -2*v+1
	}
	return protocol.MotorValues{ac * speed, bd * speed, ac * speed, bd * speed}
}

func sign(value float64) float64 {
	switch {
	case value > 0:
		return 1
	case value < 0:
		return -1
	default:
		return 0
	}
}
