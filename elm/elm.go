package elm

const (
	// Terminal Control
	CR     = "\r"
	Prompt = ">"

	// Status literals
	OK              = "OK"
	NoData          = "NO DATA"
	Unknown         = "?"
	UnableToConnect = "UNABLE TO CONNECT"
	Searching       = "SEARCHING..."

	// Adapter configuration
	CmdReset           = "ATZ"
	CmdLinefeedsOff    = "ATL0"
	CmdSpacesOff       = "ATS0"
	CmdHeadersOff      = "ATH0"
	CmdEchoOff         = "ATE0"
	CmdAdaptiveTiming2 = "ATAT2"
	CmdSetProtocol     = "ATSP"

	// DefaultProtocol asks the adapter to detect the vehicle protocol.
	DefaultProtocol = "0"
)

type LineType int

const (
	TypeStatus LineType = iota // OK, NO DATA, ?
	TypeData                   // Hex reply frames (41 0C 1A F8)
)

// InitSequence returns the configuration commands sent to the adapter right
// after the transport opens, ending with the protocol selector.
func InitSequence(protocol string) []string {
	return []string{
		CmdReset,
		CmdLinefeedsOff,
		CmdSpacesOff,
		CmdHeadersOff,
		CmdEchoOff,
		CmdAdaptiveTiming2,
		CmdSetProtocol + protocol,
	}
}

var protocolNames = map[string]string{
	"0": "Automatic",
	"1": "SAE J1850 PWM (41.6 kbaud)",
	"2": "SAE J1850 VPW (10.4 kbaud)",
	"3": "ISO 9141-2 (5 baud init)",
	"4": "ISO 14230-4 KWP (5 baud init)",
	"5": "ISO 14230-4 KWP (fast init)",
	"6": "ISO 15765-4 CAN (11 bit ID, 500 kbaud)",
	"7": "ISO 15765-4 CAN (29 bit ID, 500 kbaud)",
	"8": "ISO 15765-4 CAN (11 bit ID, 250 kbaud)",
	"9": "ISO 15765-4 CAN (29 bit ID, 250 kbaud)",
}

// ProtocolName returns the human readable name of an ATSP selector.
func ProtocolName(protocol string) string {
	if name, ok := protocolNames[protocol]; ok {
		return name
	}
	return "Unknown"
}
