package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestNewUnexpectedTypeError(t *testing.T) {
	err := NewUnexpectedTypeError("", 5)
	test.That(t, err.Error(), test.ShouldEqual, "expected string but got int")
}
