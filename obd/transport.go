package obd

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=obd

import (
	"context"
	"io"
	"net"
	"strings"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// DefaultBaudRate is the factory setting of ELM327 adapters.
const DefaultBaudRate = 38400

// Transport represents an established, bidirectional byte stream to an
// ELM327 adapter.
//
// A Transport is assumed to be already connected and ready for use. Typical
// implementations are a Bluetooth RFCOMM serial device, a USB serial port,
// a TCP socket to a Wi-Fi adapter, or in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to an adapter.
//
// Dialer abstracts how the connection is created and is only used by
// Session.Connect. Once a Transport is obtained, the Dialer is no longer
// needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It may block and should
	// respect cancellation and deadlines provided by the context.
	Dial(ctx context.Context) (Transport, error)
}

// Connection types accepted by NewDialer.
const (
	ConnBluetooth = "bluetooth"
	ConnSerial    = "serial"
	ConnTCP       = "tcp"
)

// NewDialer selects a Dialer by connection type. Bluetooth and serial open
// target as a serial device (an RFCOMM node such as /dev/rfcomm0 for paired
// Bluetooth adapters); tcp dials target as "host:port". An empty kind means
// bluetooth.
func NewDialer(kind, target string, baudRate int) (Dialer, error) {
	switch strings.ToLower(kind) {
	case "", ConnBluetooth, ConnSerial:
		return SerialDialer{PortName: target, BaudRate: baudRate}, nil
	case ConnTCP:
		return TCPDialer{Address: target}, nil
	default:
		return nil, errors.Errorf("obd: unknown connection type %q", kind)
	}
}

// SerialDialer opens an adapter over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path (e.g. "/dev/rfcomm0", "/dev/ttyUSB0", "COM3").
	PortName string
	// BaudRate is used when Mode is nil. Zero means DefaultBaudRate.
	BaudRate int
	// Mode overrides the complete port configuration.
	Mode *serial.Mode
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("obd: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("obd: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "obd: open serial port %s", d.PortName)
	}

	// serial.Open cannot be interrupted, honour a cancellation that happened
	// while it was blocked.
	if err := ctx.Err(); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

func (d SerialDialer) String() string {
	return "serial://" + d.PortName
}

// TCPDialer connects to a Wi-Fi adapter or a TCP serial bridge.
type TCPDialer struct {
	// Address is "host:port", without a URL scheme.
	Address string
}

func (d TCPDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("obd: context is nil")
	}
	if _, _, err := net.SplitHostPort(d.Address); err != nil {
		return nil, errors.Wrapf(err, "obd: invalid tcp address %q", d.Address)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "obd: dial %s", d.Address)
	}
	return conn, nil
}

func (d TCPDialer) String() string {
	return "tcp://" + d.Address
}
