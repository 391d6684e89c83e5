package cli

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"

	"go.viam.com/benben/protocol"
)

func parseFloatArgs(c *cli.Context, names ...string) ([]float64, error) {
	if c.Args().Len() != len(names) {
		return nil, errors.Errorf("expected %d arguments (%s), got %d",
			len(names), strings.Join(names, " "), c.Args().Len())
	}
	values := make([]float64, 0, len(names))
	for idx, name := range names {
		v, err := cast.ToFloat64E(c.Args().Get(idx))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", name)
		}
		values = append(values, v)
	}
	return values, nil
}

func formatMotorValues(values protocol.MotorValues) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		// Avoid printing -0.
		if v == 0 || math.Abs(v) < 1e-9 {
			v = 0
		}
		parts = append(parts, strconv.FormatFloat(v, 'f', 3, 64))
	}
	return strings.Join(parts, " ")
}

// FrameAction prints the frame encoding the given motor values.
func FrameAction(c *cli.Context) error {
	values, err := parseFloatArgs(c, "a", "b", "c", "d")
	if err != nil {
		return err
	}
	frame := protocol.EncodeFrame(protocol.MotorValues{values[0], values[1], values[2], values[3]})
	printf(c.App.Writer, "%s", frame)
	return nil
}

// MixAction prints the motor values for a stick position using the configured mixer.
func MixAction(c *cli.Context) error {
	values, err := parseFloatArgs(c, "x", "y", "rotation")
	if err != nil {
		return err
	}
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	motors := conf.Mixer.Mix(r2.Point{X: values[0], Y: values[1]}, values[2])
	printf(c.App.Writer, "%s", formatMotorValues(motors))
	return nil
}

// DecodeAction validates a frame given as hex, with or without spaces, and prints its values.
func DecodeAction(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("expected a frame in hex")
	}
	raw, err := hex.DecodeString(strings.Join(strings.Fields(strings.Join(c.Args().Slice(), "")), ""))
	if err != nil {
		return errors.Wrap(err, "invalid hex")
	}
	values, err := protocol.DecodeFrame(raw)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", formatMotorValues(values))
	return nil
}
