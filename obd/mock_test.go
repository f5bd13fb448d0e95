package obd_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	gomock "go.uber.org/mock/gomock"

	"github.com/hsccorp/node-bluetooth-tcp-obd/obd"
)

const testTimeout = 2 * time.Second

type MockSequenceBuilder struct {
	transport *obd.MockTransport
	calls     []any
}

func NewMockSequence(transport *obd.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

func (b *MockSequenceBuilder) write(wire string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(wire)).Return(len(wire), nil),
	)
	return b
}

func (b *MockSequenceBuilder) Reset() *MockSequenceBuilder { return b.write("ATZ\r") }

func (b *MockSequenceBuilder) LinefeedsOff() *MockSequenceBuilder { return b.write("ATL0\r") }

func (b *MockSequenceBuilder) SpacesOff() *MockSequenceBuilder { return b.write("ATS0\r") }

func (b *MockSequenceBuilder) HeadersOff() *MockSequenceBuilder { return b.write("ATH0\r") }

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder { return b.write("ATE0\r") }

func (b *MockSequenceBuilder) AdaptiveTiming() *MockSequenceBuilder { return b.write("ATAT2\r") }

func (b *MockSequenceBuilder) Protocol(p string) *MockSequenceBuilder { return b.write("ATSP" + p + "\r") }

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

// initMockCalls expects the full init sequence for protocol.
func initMockCalls(transport *obd.MockTransport, protocol string) []any {
	return NewMockSequence(transport).
		Reset().
		LinefeedsOff().
		SpacesOff().
		HeadersOff().
		EchoOff().
		AdaptiveTiming().
		Protocol(protocol).
		Build()
}

// blockingReads makes every Read on transport block until the returned
// function is called, then report EOF.
func blockingReads(transport *obd.MockTransport) func() {
	release := make(chan struct{})
	transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-release
		return 0, context.Canceled
	}).AnyTimes()
	return func() { close(release) }
}

func newTestSession(t *testing.T, clock clockwork.Clock, configure ...func(*obd.ConfigBuilder)) *obd.Session {
	t.Helper()

	builder := obd.NewConfigBuilder().WithClock(clock)
	for _, fn := range configure {
		fn(builder)
	}
	config, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	s, err := obd.New(config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// connectTest connects s to a fresh TestTransport and consumes the init
// sequence.
func connectTest(t *testing.T, s *obd.Session) *obd.TestTransport {
	t.Helper()

	transport := obd.NewTestTransport()
	if err := s.Connect(context.Background(), transport); err != nil {
		t.Fatalf("unexpected error from Connect(): %v", err)
	}
	for i := 0; i < 7; i++ {
		nextWrite(t, transport)
	}
	nextEvent(t, s, obd.EventConnected)
	return transport
}

func nextWrite(t *testing.T, transport *obd.TestTransport) string {
	t.Helper()
	select {
	case w := <-transport.Writes():
		return w
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for a write")
		return ""
	}
}

func expectNoWrite(t *testing.T, transport *obd.TestTransport) {
	t.Helper()
	select {
	case w := <-transport.Writes():
		t.Errorf("unexpected write %q", w)
	case <-time.After(50 * time.Millisecond):
	}
}

// nextEvent returns the next event of kind, skipping debug events. Any other
// event on the way fails the test.
func nextEvent(t *testing.T, s *obd.Session, kind obd.EventKind) obd.Event {
	t.Helper()
	timeout := time.After(testTimeout)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatalf("events channel closed while waiting for %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
			if ev.Kind != obd.EventDebug {
				t.Fatalf("unexpected %v event %+v while waiting for %v", ev.Kind, ev, kind)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %v event", kind)
		}
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
