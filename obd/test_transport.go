package obd

import (
	"context"
	"io"
	"sync"
)

// TestTransport is a test helper that simulates an adapter connection using
// channels. Reads block until SendData queues a chunk, like a real serial
// port or socket would, and every write is recorded.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	writes   chan string
	writeErr error
	closed   bool
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 10),
		writes:   make(chan string, 512),
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	select {
	case t.writes <- string(p):
	default:
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the adapter.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Writes returns the channel every successful write is recorded on.
func (t *TestTransport) Writes() <-chan string {
	return t.writes
}

// FailWrites makes every following write return err.
func (t *TestTransport) FailWrites(err error) {
	t.mu.Lock()
	t.writeErr = err
	t.mu.Unlock()
}

// Closed reports whether Close was called.
func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Dial makes TestTransport its own Dialer.
func (t *TestTransport) Dial(_ context.Context) (Transport, error) {
	return t, nil
}
