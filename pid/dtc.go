package pid

import "fmt"

var dtcSystems = [4]byte{'P', 'C', 'B', 'U'}

// FormatDTC renders the two bytes of a stored trouble code, e.g. 0x01 0x33
// becomes "P0133". The top two bits select the system letter.
func FormatDTC(hi, lo byte) string {
	return fmt.Sprintf("%c%d%X%02X", dtcSystems[hi>>6], (hi>>4)&0x03, hi&0x0F, lo)
}

// DecodeDTCs turns a mode 03 payload into the trouble codes it carries.
// Byte pairs of zero are padding and are skipped.
func DecodeDTCs(data []byte) any {
	codes := []string{}
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			continue
		}
		codes = append(codes, FormatDTC(data[i], data[i+1]))
	}
	return codes
}

// MILStatus is the decoded monitor status word (PID 01).
type MILStatus struct {
	MIL      bool `json:"mil"`
	DTCCount int  `json:"dtcCount"`
}

func decodeMILStatus(data []byte) any {
	return MILStatus{
		MIL:      data[0]&0x80 != 0,
		DTCCount: int(data[0] & 0x7F),
	}
}
