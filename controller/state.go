package controller

import "fmt"

// State is the connection state of the controller. Exactly one state is active at a time.
type State int32

// The connection states. The only transitions are Disconnected -> Connecting -> Connected or back
// to Disconnected, and Connected -> Disconnected.
const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// MarshalText renders the state as its lower case name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
