package pid_test

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/hsccorp/node-bluetooth-tcp-obd/pid"
)

func TestDefaultTable(t *testing.T) {
	table := pid.Default()

	t.Run("Lookup by name", func(t *testing.T) {
		d, ok := table.ByName("rpm")
		if !ok {
			t.Fatal("expected rpm in the default table")
		}
		if d.Command() != "010C" {
			t.Errorf("Command() = %q, want %q", d.Command(), "010C")
		}
		if d.Bytes != 2 {
			t.Errorf("Bytes = %d, want 2", d.Bytes)
		}
	})

	t.Run("Mode-only command", func(t *testing.T) {
		d, ok := table.ByName("requestdtc")
		if !ok {
			t.Fatal("expected requestdtc in the default table")
		}
		if d.Command() != "03" {
			t.Errorf("Command() = %q, want %q", d.Command(), "03")
		}
	})

	t.Run("Lookup by mode and pid ignores case", func(t *testing.T) {
		d, ok := table.ByModeAndPID("01", "0c")
		if !ok || d.Name != "rpm" {
			t.Errorf("ByModeAndPID(01, 0c) = %v, %v", d, ok)
		}
	})

	t.Run("First descriptor of mode 03", func(t *testing.T) {
		d, ok := table.FirstByMode("03")
		if !ok || d.Name != "requestdtc" {
			t.Errorf("FirstByMode(03) = %v, %v", d, ok)
		}
	})

	t.Run("Unknown name", func(t *testing.T) {
		if _, ok := table.ByName("warp_drive"); ok {
			t.Error("expected no descriptor for an unknown name")
		}
	})

	t.Run("Common dashboard names exist", func(t *testing.T) {
		for _, name := range []string{"vss", "rpm", "temp", "load_pct", "map", "frp"} {
			if _, ok := table.ByName(name); !ok {
				t.Errorf("missing %q", name)
			}
		}
	})
}

func TestDecoders(t *testing.T) {
	table := pid.Default()

	tests := []struct {
		name     string
		data     []byte
		expected float64
	}{
		{name: "rpm", data: []byte{0x1A, 0xF8}, expected: 1726},
		{name: "vss", data: []byte{0x32}, expected: 50},
		{name: "temp", data: []byte{0x7B}, expected: 83},
		{name: "load_pct", data: []byte{0xFF}, expected: 100},
		{name: "frp", data: []byte{0x10}, expected: 48},
		{name: "maf", data: []byte{0x01, 0x2C}, expected: 3},
		{name: "sparkadv", data: []byte{0x80}, expected: 0},
		{name: "shrtft13", data: []byte{0x80}, expected: 0},
		{name: "vpwr", data: []byte{0x34, 0xBC}, expected: 13.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := table.ByName(tt.name)
			if !ok {
				t.Fatalf("missing %q", tt.name)
			}
			got, ok := d.Decode(tt.data).(float64)
			if !ok {
				t.Fatalf("Decode() returned %T, want float64", d.Decode(tt.data))
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Decode(% X) = %v, want %v", tt.data, got, tt.expected)
			}
		})
	}
}

func TestStructuredDecoders(t *testing.T) {
	table := pid.Default()

	t.Run("Monitor status", func(t *testing.T) {
		d, _ := table.ByName("dtc_cnt")
		got := d.Decode([]byte{0x83, 0x07, 0xE5, 0x00})
		want := pid.MILStatus{MIL: true, DTCCount: 3}
		if got != want {
			t.Errorf("Decode() = %+v, want %+v", got, want)
		}
	})

	t.Run("Supported PIDs bitmap", func(t *testing.T) {
		d, _ := table.ByName("pidsupp0")
		got := d.Decode([]byte{0xBE, 0x1F, 0xA8, 0x13}).([]string)
		if !slices.Contains(got, "01") || !slices.Contains(got, "0C") || !slices.Contains(got, "20") {
			t.Errorf("Decode() = %v, expected 01, 0C and 20 among supported PIDs", got)
		}
		if slices.Contains(got, "02") {
			t.Errorf("Decode() = %v, 02 is not supported", got)
		}
	})

	t.Run("Fuel type", func(t *testing.T) {
		d, _ := table.ByName("fuel_type")
		if got := d.Decode([]byte{0x04}); got != "Diesel" {
			t.Errorf("Decode() = %v, want Diesel", got)
		}
		if got := d.Decode([]byte{0xEE}); got != "Unknown" {
			t.Errorf("Decode() = %v, want Unknown", got)
		}
	})
}

func TestDTC(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected []string
	}{
		{name: "Single powertrain code", data: []byte{0x01, 0x33, 0x00, 0x00, 0x00, 0x00}, expected: []string{"P0133"}},
		{name: "All systems", data: []byte{0x01, 0x33, 0x52, 0x34, 0xC1, 0x00}, expected: []string{"P0133", "C1234", "U0100"}},
		{name: "Body code", data: []byte{0xA1, 0x23, 0x00, 0x00, 0x00, 0x00}, expected: []string{"B2123"}},
		{name: "No codes", data: make([]byte, 6), expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pid.DecodeDTCs(tt.data).([]string)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("DecodeDTCs(% X) = %v, want %v", tt.data, got, tt.expected)
			}
		})
	}
}

func TestNewTable(t *testing.T) {
	decode := func(data []byte) any { return data[0] }

	tests := []struct {
		name        string
		descriptors []pid.Descriptor
		wantErr     string
	}{
		{
			name:        "Valid descriptor",
			descriptors: []pid.Descriptor{{Mode: "01", PID: "0d", Bytes: 1, Name: "vss", Decode: decode}},
		},
		{
			name: "Duplicate name",
			descriptors: []pid.Descriptor{
				{Mode: "01", PID: "0D", Bytes: 1, Name: "vss", Decode: decode},
				{Mode: "01", PID: "0E", Bytes: 1, Name: "vss", Decode: decode},
			},
			wantErr: "duplicate name",
		},
		{
			name:        "Unsupported byte count",
			descriptors: []pid.Descriptor{{Mode: "01", PID: "0D", Bytes: 3, Name: "vss", Decode: decode}},
			wantErr:     "byte count",
		},
		{
			name:        "Bad mode",
			descriptors: []pid.Descriptor{{Mode: "1", PID: "0D", Bytes: 1, Name: "vss", Decode: decode}},
			wantErr:     "mode",
		},
		{
			name:        "Missing decode",
			descriptors: []pid.Descriptor{{Mode: "01", PID: "0D", Bytes: 1, Name: "vss"}},
			wantErr:     "missing decode",
		},
		{
			name:        "Missing name",
			descriptors: []pid.Descriptor{{Mode: "01", PID: "0D", Bytes: 1, Decode: decode}},
			wantErr:     "no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := pid.NewTable(tt.descriptors...)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if table.Len() != len(tt.descriptors) {
					t.Errorf("Len() = %d, want %d", table.Len(), len(tt.descriptors))
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestTableNormalisesHex(t *testing.T) {
	table, err := pid.NewTable(pid.Descriptor{Mode: "01", PID: "0d", Bytes: 1, Name: "vss", Decode: func(data []byte) any { return data[0] }})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, _ := table.ByName("vss")
	if d.Command() != "010D" {
		t.Errorf("Command() = %q, want %q", d.Command(), "010D")
	}
}

func TestRender(t *testing.T) {
	out := pid.Default().String()

	for _, want := range []string{"NAME", "rpm", "010C", "rev/min", "requestdtc"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table is missing %q", want)
		}
	}
}
