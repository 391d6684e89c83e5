package protocol

import "github.com/pkg/errors"

// Frame validation failures returned by DecodeFrame. Use errors.Is to match them.
var (
	ErrFrameLength   = errors.New("invalid frame length")
	ErrFrameMarker   = errors.New("invalid frame markers")
	ErrFrameCommand  = errors.New("unknown frame command")
	ErrFrameChecksum = errors.New("frame checksum mismatch")
)

func newFrameError(sentinel error, format string, args ...interface{}) error {
	return errors.Wrapf(sentinel, format, args...)
}
