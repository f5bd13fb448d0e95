package obd

import "fmt"

// Names of the trouble code entries in the default table.
const (
	NameRequestDTC = "requestdtc"
	NameClearDTC   = "clear_dtc"
)

// ErrUnknownPID is returned when a request names a parameter that is not in
// the table. Nothing is written in that case.
type ErrUnknownPID struct {
	Name string
}

func (e ErrUnknownPID) Error() string {
	return fmt.Sprintf("unknown PID name %q", e.Name)
}

// RequestValueByName queues a single request for a named parameter. The
// reply arrives as an EventDataReceived.
//
// An unknown name is a no-op apart from a debug event and the returned
// ErrUnknownPID.
func (s *Session) RequestValueByName(name string) error {
	cmd, ok := s.codec.Encode(name)
	if !ok {
		s.debug("Unknown PID name: " + name)
		return ErrUnknownPID{Name: name}
	}
	return s.Write(cmd, 0)
}

// RequestDTCs asks the vehicle for its stored trouble codes (mode 03). The
// codes arrive as a mode 43 reply.
func (s *Session) RequestDTCs() error {
	return s.RequestValueByName(NameRequestDTC)
}

// ClearDTCs clears stored trouble codes and turns the MIL off (mode 04).
func (s *Session) ClearDTCs() error {
	return s.RequestValueByName(NameClearDTC)
}
