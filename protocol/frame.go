// Package protocol implements the 18 byte motor command frame understood by the vehicle.
package protocol

import (
	"fmt"
	"math"
	"strings"
)

// FrameLength is the size of every command frame.
const FrameLength = 18

const (
	startMarker = 0xCC
	endMarker   = 0x33
	padding     = 0x80

	checksumOffset = 16
	motorOffset    = 4
)

var command = [3]byte{0x00, 0x00, 0x02}

// MotorValues are the drive values of motors A, B, C and D. Each value is meant to be in [-1, 1]
// but is only clamped when encoded.
type MotorValues [4]float64

// Frame is one encoded motor command.
type Frame [FrameLength]byte

// String renders the frame as spaced upper case hex, e.g. "CC 00 00 02 80 ...".
func (f Frame) String() string {
	var sb strings.Builder
	for idx, b := range f {
		if idx > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// ConvertMotorValue maps a drive value onto the wire byte. 0 is 128, 1 and above is 255, -1 and
// below is 1.
func ConvertMotorValue(value float64) byte {
	return scaledToByte(127 * value)
}

// scaledToByte rounds a value already multiplied by 127. Halves round away from zero.
func scaledToByte(scaled float64) byte {
	rounded := math.Round(scaled)
	switch {
	case math.IsNaN(rounded):
		return padding
	case rounded < -127:
		return 1
	case rounded > 127:
		return 255
	default:
		return byte(128 + int(rounded))
	}
}

// Checksum is the low byte of the sum of the bytes between the start marker and the checksum.
func (f Frame) Checksum() byte {
	var sum int
	for _, b := range f[1:checksumOffset] {
		sum += int(b)
	}
	return byte(sum & 0xFF)
}

// EncodeFrame builds the command frame for the given motor values. Motor D is mounted reversed, so
// its value is negated on the wire.
func EncodeFrame(values MotorValues) Frame {
	var f Frame
	f[0] = startMarker
	copy(f[1:motorOffset], command[:])
	f[motorOffset] = ConvertMotorValue(values[0])
	f[motorOffset+1] = ConvertMotorValue(values[1])
	f[motorOffset+2] = ConvertMotorValue(values[2])
	f[motorOffset+3] = ConvertMotorValue(-values[3])
	for idx := motorOffset + 4; idx < checksumOffset; idx++ {
		f[idx] = padding
	}
	f[checksumOffset] = f.Checksum()
	f[FrameLength-1] = endMarker
	return f
}

// DecodeFrame validates a received frame and recovers the motor values it carries. Values are
// quantized to 1/127 steps.
func DecodeFrame(data []byte) (MotorValues, error) {
	if len(data) != FrameLength {
		return MotorValues{}, newFrameError(ErrFrameLength, "got %d bytes", len(data))
	}
	var f Frame
	copy(f[:], data)

	if f[0] != startMarker || f[FrameLength-1] != endMarker {
		return MotorValues{}, newFrameError(ErrFrameMarker, "got %#02x ... %#02x", f[0], f[FrameLength-1])
	}
	if [3]byte(f[1:motorOffset]) != command {
		return MotorValues{}, newFrameError(ErrFrameCommand, "got % x", f[1:motorOffset])
	}
	if f.Checksum() != f[checksumOffset] {
		return MotorValues{}, newFrameError(ErrFrameChecksum, "computed %#02x, frame has %#02x",
			f.Checksum(), f[checksumOffset])
	}

	var values MotorValues
	for idx := range values {
		values[idx] = float64(int(f[motorOffset+idx])-128) / 127
	}
	// Undo the motor D reversal.
	values[3] = -values[3]
	return values, nil
}
