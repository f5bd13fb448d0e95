package obd

// EventKind identifies what an Event reports.
type EventKind int

const (
	EventConnected    EventKind = iota // The init sequence was sent
	EventDataReceived                  // Reply holds a decoded message
	EventError                         // Message describes a failure
	EventDebug                         // Message is a diagnostic note
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDataReceived:
		return "dataReceived"
	case EventError:
		return "error"
	case EventDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// Event is emitted by a Session on its Events channel.
type Event struct {
	Kind    EventKind
	Reply   Reply
	Message string
}

// Messages of the error events. Callers match on them when they need to
// react to a specific failure.
const (
	MsgNotConnected        = "device is not connected."
	MsgQueueOverflow       = "Queue-overflow!"
	MsgListenersDeactivate = "OBD-II Listeners deactivated, connection is probably lost."
)
