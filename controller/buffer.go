package controller

import (
	"go.uber.org/atomic"

	"go.viam.com/benben/protocol"
)

// MotorBuffer holds the latest motor values. Writers replace the whole set at once, so a reader
// never sees values from two different writes.
type MotorBuffer struct {
	values atomic.Pointer[protocol.MotorValues]
}

// NewMotorBuffer returns a buffer holding zeros.
func NewMotorBuffer() *MotorBuffer {
	buf := &MotorBuffer{}
	buf.Store(protocol.MotorValues{})
	return buf
}

// Store replaces the buffered values.
func (buf *MotorBuffer) Store(values protocol.MotorValues) {
	buf.values.Store(&values)
}

// Load returns the latest values.
func (buf *MotorBuffer) Load() protocol.MotorValues {
	if values := buf.values.Load(); values != nil {
		return *values
	}
	return protocol.MotorValues{}
}
