package obd

import (
	"strconv"
	"strings"

	"github.com/hsccorp/node-bluetooth-tcp-obd/elm"
	"github.com/hsccorp/node-bluetooth-tcp-obd/pid"
)

// Response modes the codec decodes.
const (
	ModeCurrentData = "41"
	ModeStoredDTCs  = "43"
)

// dtcPayloadBytes is the fixed payload of a mode 43 reply.
const dtcPayloadBytes = 6

// Reply is one decoded adapter message.
//
// Status messages only carry Value. Mode 41 replies carry Mode, PID, Name and
// Value; mode 43 replies leave PID empty. A reply for a PID missing from the
// table keeps whatever fields could be filled.
type Reply struct {
	Mode  string `json:"mode,omitempty"`
	PID   string `json:"pid,omitempty"`
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`
}

// IsStatus reports whether the reply is an adapter status literal.
func (r Reply) IsStatus() bool {
	return r.Mode == "" && r.Name == "" && r.Value != nil
}

// Codec translates between parameter names and the adapter's hex frames.
type Codec struct {
	table *pid.Table
}

func NewCodec(table *pid.Table) *Codec {
	if table == nil {
		table = pid.Default()
	}
	return &Codec{table: table}
}

// Encode returns the request body for a parameter name. The second result
// is false when the name is not in the table.
func (c *Codec) Encode(name string) (string, bool) {
	d, ok := c.table.ByName(name)
	if !ok {
		return "", false
	}
	return d.Command(), true
}

// Decode parses one adapter message. It never fails: unknown modes and PIDs
// produce a partially filled Reply.
func (c *Codec) Decode(msg string) Reply {
	trimmed := strings.TrimSpace(msg)
	if elm.Classify(trimmed) == elm.TypeStatus {
		return Reply{Value: trimmed}
	}

	tokens := splitBytes(strings.Join(strings.Fields(trimmed), ""))
	if len(tokens) == 0 {
		return Reply{}
	}

	var reply Reply
	switch strings.ToUpper(tokens[0]) {
	case ModeCurrentData:
		reply.Mode = ModeCurrentData
		if len(tokens) < 2 {
			return reply
		}
		reply.PID = strings.ToUpper(tokens[1])
		d, ok := c.table.ByModeAndPID("01", reply.PID)
		if !ok {
			return reply
		}
		reply.Name = d.Name
		reply.Value = decodeWith(d, tokens[2:], d.Bytes)

	case ModeStoredDTCs:
		reply.Mode = ModeStoredDTCs
		d, ok := c.table.FirstByMode("03")
		if !ok {
			return reply
		}
		reply.Name = d.Name
		reply.Value = decodeWith(d, tokens[1:], dtcPayloadBytes)
	}

	return reply
}

// decodeWith hands exactly n bytes to the descriptor. Missing trailing
// bytes are zero, extra bytes are ignored. A token that is not hex leaves
// the value unset.
func decodeWith(d pid.Descriptor, tokens []string, n int) any {
	if d.Decode == nil || n <= 0 {
		return nil
	}
	data := make([]byte, n)
	for i := 0; i < n && i < len(tokens); i++ {
		b, err := strconv.ParseUint(tokens[i], 16, 8)
		if err != nil {
			return nil
		}
		data[i] = byte(b)
	}
	return d.Decode(data)
}

// splitBytes cuts a hex string into two-character tokens. An odd trailing
// digit becomes its own token.
func splitBytes(s string) []string {
	tokens := make([]string, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		end := min(i+2, len(s))
		tokens = append(tokens, s[i:end])
	}
	return tokens
}
