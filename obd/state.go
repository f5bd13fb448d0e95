package obd

// State is the lifecycle state of a Session.
type State int

const (
	StateDisconnected State = iota // Initial, and after Disconnect
	StateConnecting                // Dialing and sending the init sequence
	StateConnected                 // Draining the write queue
	StateFaulted                   // Dial, read or write failure; Connect again to recover
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// canConnect reports whether Connect may start from s.
func (s State) canConnect() bool {
	return s == StateDisconnected || s == StateFaulted
}
