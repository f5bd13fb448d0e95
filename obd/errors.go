package obd

import "errors"

var (
	// ErrNoDialer is returned when Connect is called without a Dialer.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotConnected is returned when a command is written, or the session
	// disconnected, while the session is not in the Connected state.
	//
	// The session also reports it as an error event and stops its timers,
	// so the caller has to connect again before polling resumes.
	ErrNotConnected = errors.New("device is not connected")

	// ErrAlreadyConnected is returned when Connect is called on a session
	// that is connecting or connected.
	ErrAlreadyConnected = errors.New("session already connected")

	// ErrQueueOverflow is returned when the write queue is full. The command
	// is dropped and the connection is left untouched.
	ErrQueueOverflow = errors.New("write queue overflow")

	// ErrInvalidProtocol is returned by SetProtocol for anything but a single
	// decimal digit.
	//
	// See the ATSP section of the ELM327 data sheet for the meaning of each
	// selector.
	ErrInvalidProtocol = errors.New("protocol must be a single digit between 0 and 9")

	// ErrInvalidInterval is returned when polling would start with a
	// non-positive interval, typically because no pollers are registered.
	ErrInvalidInterval = errors.New("poll interval must be > 0")

	// ErrAlreadyClosed is returned when an operation is attempted on a
	// Session that has been closed.
	ErrAlreadyClosed = errors.New("session already closed")
)
