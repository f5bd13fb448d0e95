package obd_test

import (
	"slices"
	"testing"

	"github.com/hsccorp/node-bluetooth-tcp-obd/obd"
	"github.com/hsccorp/node-bluetooth-tcp-obd/pid"
)

// capture returns a decode function that reports the bytes it was given.
func capture() pid.DecodeFunc {
	return func(data []byte) any {
		return slices.Clone(data)
	}
}

func captureTable(t *testing.T) *pid.Table {
	t.Helper()
	table, err := pid.NewTable(
		pid.Descriptor{Mode: "01", PID: "0D", Bytes: 1, Name: "one", Decode: capture()},
		pid.Descriptor{Mode: "01", PID: "0C", Bytes: 2, Name: "two", Decode: capture()},
		pid.Descriptor{Mode: "01", PID: "24", Bytes: 4, Name: "four", Decode: capture()},
		pid.Descriptor{Mode: "01", PID: "4F", Bytes: 8, Name: "eight", Decode: capture()},
		pid.Descriptor{Mode: "09", PID: "0C", Bytes: 1, Name: "other_mode", Decode: capture()},
		pid.Descriptor{Mode: "03", Bytes: 6, Name: "dtc", Decode: capture()},
		pid.Descriptor{Mode: "03", Bytes: 6, Name: "dtc_second", Decode: capture()},
		pid.Descriptor{Mode: "04", Name: "clear"},
	)
	if err != nil {
		t.Fatalf("unexpected error building table: %v", err)
	}
	return table
}

func TestCodecEncode(t *testing.T) {
	codec := obd.NewCodec(pid.Default())

	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "Mode and pid", input: "rpm", expected: "010C", ok: true},
		{name: "Speed", input: "vss", expected: "010D", ok: true},
		{name: "Mode only", input: "requestdtc", expected: "03", ok: true},
		{name: "Clear codes", input: "clear_dtc", expected: "04", ok: true},
		{name: "Unknown name", input: "flux_capacitor", expected: "", ok: false},
		{name: "Empty name", input: "", expected: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := codec.Encode(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("Encode(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestCodecDecodeStatus(t *testing.T) {
	codec := obd.NewCodec(pid.Default())

	for _, status := range []string{"OK", "NO DATA", "?", "UNABLE TO CONNECT", "SEARCHING..."} {
		t.Run(status, func(t *testing.T) {
			got := codec.Decode(status)
			want := obd.Reply{Value: status}
			if got != want {
				t.Errorf("Decode(%q) = %+v, want %+v", status, got, want)
			}
			if !got.IsStatus() {
				t.Errorf("expected IsStatus() for %q", status)
			}
		})
	}
}

func TestCodecDecodeByteCounts(t *testing.T) {
	codec := obd.NewCodec(captureTable(t))

	tests := []struct {
		name     string
		input    string
		wantName string
		wantPID  string
		wantData []byte
	}{
		{name: "One byte", input: "410D32", wantName: "one", wantPID: "0D", wantData: []byte{0x32}},
		{name: "Two bytes", input: "410C1AF8", wantName: "two", wantPID: "0C", wantData: []byte{0x1A, 0xF8}},
		{name: "Four bytes", input: "4124010203040506", wantName: "four", wantPID: "24", wantData: []byte{1, 2, 3, 4}},
		{name: "Eight bytes", input: "414F0102030405060708", wantName: "eight", wantPID: "4F", wantData: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "Extra bytes are ignored", input: "410D32FFEE", wantName: "one", wantPID: "0D", wantData: []byte{0x32}},
		{name: "Missing bytes are zero", input: "410C1A", wantName: "two", wantPID: "0C", wantData: []byte{0x1A, 0x00}},
		{name: "Spaces are stripped", input: "41 0C 1A F8", wantName: "two", wantPID: "0C", wantData: []byte{0x1A, 0xF8}},
		{name: "Lower case hex", input: "410c1af8", wantName: "two", wantPID: "0C", wantData: []byte{0x1A, 0xF8}},
		{name: "Trailing carriage return", input: "410D32\r", wantName: "one", wantPID: "0D", wantData: []byte{0x32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codec.Decode(tt.input)
			if got.Mode != "41" {
				t.Errorf("Mode = %q, want 41", got.Mode)
			}
			if got.PID != tt.wantPID {
				t.Errorf("PID = %q, want %q", got.PID, tt.wantPID)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			data, ok := got.Value.([]byte)
			if !ok {
				t.Fatalf("Value = %#v, want the captured bytes", got.Value)
			}
			if !slices.Equal(data, tt.wantData) {
				t.Errorf("decode called with % X, want % X", data, tt.wantData)
			}
		})
	}
}

func TestCodecDecodeDTC(t *testing.T) {
	t.Run("First mode 03 descriptor decodes six bytes", func(t *testing.T) {
		codec := obd.NewCodec(captureTable(t))
		got := codec.Decode("43010302170000FF")

		if got.Mode != "43" || got.PID != "" || got.Name != "dtc" {
			t.Errorf("Decode() = %+v, want mode 43, no pid, name dtc", got)
		}
		want := []byte{0x01, 0x03, 0x02, 0x17, 0x00, 0x00}
		if data, _ := got.Value.([]byte); !slices.Equal(data, want) {
			t.Errorf("decode called with % X, want % X", data, want)
		}
	})

	t.Run("Default table yields trouble codes", func(t *testing.T) {
		codec := obd.NewCodec(pid.Default())
		got := codec.Decode("43 01 33 00 00 00 00")

		if got.Name != "requestdtc" {
			t.Errorf("Name = %q, want requestdtc", got.Name)
		}
		if codes, _ := got.Value.([]string); !slices.Equal(codes, []string{"P0133"}) {
			t.Errorf("Value = %#v, want [P0133]", got.Value)
		}
	})
}

func TestCodecDecodePartial(t *testing.T) {
	codec := obd.NewCodec(captureTable(t))

	tests := []struct {
		name     string
		input    string
		expected obd.Reply
	}{
		{name: "Unknown pid keeps mode and pid", input: "41FF12", expected: obd.Reply{Mode: "41", PID: "FF"}},
		{name: "Other mode is ignored", input: "490201", expected: obd.Reply{}},
		{name: "Adapter banner", input: "ELM327 v1.5", expected: obd.Reply{}},
		{name: "Mode byte only", input: "41", expected: obd.Reply{Mode: "41"}},
		{name: "Empty message", input: "", expected: obd.Reply{}},
		{name: "Non hex data byte", input: "410DZZ", expected: obd.Reply{Mode: "41", PID: "0D", Name: "one"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codec.Decode(tt.input)
			if got.Mode != tt.expected.Mode || got.PID != tt.expected.PID || got.Name != tt.expected.Name || got.Value != nil {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := obd.NewCodec(pid.Default())

	for _, d := range pid.Default().All() {
		if d.Mode != "01" {
			continue
		}
		t.Run(d.Name, func(t *testing.T) {
			cmd, ok := codec.Encode(d.Name)
			if !ok {
				t.Fatalf("Encode(%q) failed", d.Name)
			}
			// The adapter answers a mode 01 request with mode 41 and echoes the pid.
			frame := "41" + cmd[2:]
			for i := 0; i < d.Bytes; i++ {
				frame += "00"
			}
			if got := codec.Decode(frame); got.Name != d.Name {
				t.Errorf("Decode(%q).Name = %q, want %q", frame, got.Name, d.Name)
			}
		})
	}
}

func TestCodecRPMReply(t *testing.T) {
	codec := obd.NewCodec(pid.Default())
	got := codec.Decode("410C1A\r")

	if got.Mode != "41" || got.PID != "0C" || got.Name != "rpm" {
		t.Fatalf("Decode() = %+v", got)
	}
	// 0x1A00 / 4
	if got.Value != 1664.0 {
		t.Errorf("Value = %v, want 1664", got.Value)
	}
}
