package obd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hsccorp/node-bluetooth-tcp-obd/elm"
	"github.com/hsccorp/node-bluetooth-tcp-obd/pid"
)

// readBufferSize is the chunk size handed to Transport.Read.
const readBufferSize = 1024

// Session is a client for one ELM327 adapter. It owns the transport, the
// write queue, the active pollers and both tickers; nothing is shared
// between sessions.
//
// Commands are never written straight to the adapter. Write appends them to
// a bounded queue and a drain ticker sends at most one command per
// WriteDelay, in FIFO order, so the half-duplex adapter never sees two
// overlapping requests. Replies are read by a dedicated goroutine, split into
// messages and decoded before being emitted as events.
//
// Failures are reported as EventError on the Events channel. Methods that
// can fail return the same condition as an error for callers that prefer
// checking it inline.
type Session struct {
	// config contains the session settings
	config Config
	// codec translates parameter names and reply frames
	codec *Codec
	// logger receives structured logs for every event
	logger *slog.Logger
	// clock drives the drain and poll tickers
	clock clockwork.Clock

	// mu guards every field below up to the event channel
	mu sync.Mutex
	// state is the current lifecycle state
	state State
	// closed indicates the session was shut down with Close
	closed bool
	// protocol is the ATSP selector sent on connect
	protocol string
	// transport is the open connection, only set while Connected
	transport Transport
	// gen identifies the current connection to its reader goroutine
	gen uint64
	// queue holds commands waiting for a drain tick
	queue *WriteQueue
	// pollers holds the request bodies written on every poll tick
	pollers []string
	// pollInterval is the period of the running poll ticker
	pollInterval time.Duration
	// drain sends one queued command per tick
	drain *tickLoop
	// poll enqueues the pollers on every tick
	poll *tickLoop
	// connecting is the attempt in flight while Connecting
	connecting *connectAttempt

	// emitMu guards events against a send after Close
	emitMu       sync.RWMutex
	events       chan Event
	eventsClosed bool
}

// connectAttempt lets Disconnect abandon a Connect that has not finished.
type connectAttempt struct {
	cancel context.CancelFunc
}

// New creates a disconnected Session.
func New(config Config) (*Session, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	return &Session{
		config:   config,
		codec:    NewCodec(config.table),
		logger:   config.logger.With("component", "obd"),
		clock:    config.clock,
		protocol: config.protocol,
		queue:    NewWriteQueue(config.queueCapacity),
		events:   make(chan Event, config.eventBuffer),
	}, nil
}

// Events returns the channel every session event is delivered on. It is
// buffered; when the consumer falls behind, new events are dropped.
// The channel is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetProtocol sets the ATSP selector used by the next Connect. It must be a
// single decimal digit, "0" meaning automatic detection.
func (s *Session) SetProtocol(protocol string) error {
	if err := ValidateProtocol(protocol); err != nil {
		return err
	}
	s.mu.Lock()
	s.protocol = protocol
	s.mu.Unlock()
	return nil
}

// Protocol returns the ATSP selector.
func (s *Session) Protocol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocol
}

// Descriptor returns the table entry of a parameter, for its range, unit and
// description.
func (s *Session) Descriptor(name string) (pid.Descriptor, bool) {
	return s.config.table.ByName(name)
}

// Table returns the parameter table the session encodes and decodes with.
func (s *Session) Table() *pid.Table {
	return s.config.table
}

// Connect opens a transport with dialer and configures the adapter.
//
// The init sequence (ATZ, ATL0, ATS0, ATH0, ATE0, ATAT2, ATSP<protocol>) is
// written directly to the transport without waiting for replies. The
// session is then Connected: the drain ticker starts, replies are read in
// the background and EventConnected is emitted.
//
// A dial failure leaves the session Faulted and emits EventError. Connect
// can be called again from the Faulted state. Disconnect or Close during the
// dial cancels it; the session then stays Disconnected and no error event is
// emitted.
func (s *Session) Connect(ctx context.Context, dialer Dialer) error {
	if dialer == nil {
		return ErrNoDialer
	}

	dialCtx, cancelDial := context.WithCancel(ctx)
	defer cancelDial()
	if _, ok := ctx.Deadline(); !ok && s.config.dialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(dialCtx, s.config.dialTimeout)
		defer cancel()
	}
	attempt := &connectAttempt{cancel: cancelDial}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrAlreadyClosed
	}
	if !s.state.canConnect() {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = StateConnecting
	s.connecting = attempt
	protocol := s.protocol
	s.mu.Unlock()

	s.debug(fmt.Sprintf("Connecting to %v", dialer))

	transport, err := dialer.Dial(dialCtx)
	if err == nil && transport == nil {
		err = errors.New("dialer returned no transport")
	}
	if err != nil {
		if s.failConnect(attempt) {
			s.emitError("Error with OBD-II device: " + err.Error())
		}
		return fmt.Errorf("dial: %w", err)
	}

	for _, cmd := range elm.InitSequence(protocol) {
		if _, err := transport.Write([]byte(cmd + elm.CR)); err != nil {
			transport.Close()
			if s.failConnect(attempt) {
				s.emitError("Error while writing: " + err.Error())
			}
			return fmt.Errorf("write init command %q: %w", cmd, err)
		}
	}

	s.mu.Lock()
	if s.closed || s.connecting != attempt {
		// Disconnect or Close won the race while the adapter was configured.
		s.mu.Unlock()
		transport.Close()
		return ErrNotConnected
	}
	s.connecting = nil
	s.transport = transport
	s.gen++
	gen := s.gen
	s.state = StateConnected
	s.drain = startTickLoop(s.clock.NewTicker(s.config.writeDelay), s.drainOnce)
	s.mu.Unlock()

	s.logger.Info("Connected to OBD-II adapter", "dialer", dialer, "protocol", protocol)
	s.emit(Event{Kind: EventConnected})

	go s.readLoop(transport, gen)
	return nil
}

// failConnect moves attempt from Connecting to Faulted. It reports false
// when Disconnect or Close abandoned the attempt first.
func (s *Session) failConnect(attempt *connectAttempt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.connecting != attempt {
		return false
	}
	s.connecting = nil
	s.state = StateFaulted
	return true
}

// Disconnect stops both tickers, drops queued commands and pollers, closes
// the transport and leaves the session Disconnected. The tickers have
// exited when the transport is closed, so no write races the close.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.state == StateDisconnected {
		// Polling may have been started before any Connect.
		poll := s.poll
		s.poll = nil
		s.pollInterval = 0
		s.mu.Unlock()

		poll.halt()
		poll.wait()
		return ErrNotConnected
	}
	drain, poll, transport, attempt := s.drain, s.poll, s.transport, s.connecting
	s.drain, s.poll, s.transport, s.connecting = nil, nil, nil, nil
	s.queue.Clear()
	s.pollers = nil
	s.pollInterval = 0
	s.state = StateDisconnected
	s.mu.Unlock()

	if attempt != nil {
		attempt.cancel()
	}
	drain.halt()
	poll.halt()
	drain.wait()
	poll.wait()

	var err error
	if transport != nil {
		err = transport.Close()
	}
	s.debug("Disconnected from OBD-II device")
	return err
}

// Close disconnects if needed and closes the Events channel. The session
// cannot be reused.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrAlreadyClosed
	}
	s.closed = true
	s.mu.Unlock()

	err := s.Disconnect()
	if errors.Is(err, ErrNotConnected) {
		err = nil
	}
	s.StopPolling()

	s.emitMu.Lock()
	s.eventsClosed = true
	close(s.events)
	s.emitMu.Unlock()

	return err
}

// Write queues a command for the adapter. text is the body without
// terminator; replies is the number of replies to wait for, 0 for no limit.
//
// Writing while not Connected emits EventError, stops both tickers and
// clears the pollers. A full queue emits EventError and drops the command.
func (s *Session) Write(text string, replies int) error {
	return s.write(text, replies, false)
}

// write queues a command. A polled write that finds the session Connecting
// or Faulted is dropped silently: the fault has already been reported and
// the pollers are gone.
func (s *Session) write(text string, replies int, polled bool) error {
	s.mu.Lock()
	if polled && (s.state == StateConnecting || s.state == StateFaulted) {
		s.mu.Unlock()
		return ErrNotConnected
	}
	if s.state != StateConnected {
		drain, poll := s.drain, s.poll
		s.drain, s.poll = nil, nil
		s.pollers = nil
		s.pollInterval = 0
		s.mu.Unlock()

		drain.halt()
		poll.halt()
		s.emitError(MsgNotConnected)
		return ErrNotConnected
	}
	err := s.queue.Enqueue(PendingCommand{Text: text, Replies: replies})
	s.mu.Unlock()

	if err != nil {
		s.emitError(MsgQueueOverflow)
		return err
	}
	return nil
}

// QueueLen returns the number of commands waiting for a drain tick.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// drainOnce sends the oldest queued command, if any.
func (s *Session) drainOnce() {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	cmd, ok := s.queue.Dequeue()
	transport, gen, self := s.transport, s.gen, s.drain
	s.mu.Unlock()
	if !ok {
		return
	}

	if _, err := transport.Write([]byte(cmd.Wire())); err != nil {
		s.logger.Error("Failed to write command", "command", cmd.Text, "error", err)
		if s.fault(gen, self) {
			s.emitError("Error while writing: " + err.Error())
			s.emitError(MsgListenersDeactivate)
		}
	}
}

// readLoop feeds everything read from transport through a Reassembler and
// emits the decoded messages. It exits on the first read error.
func (s *Session) readLoop(transport Transport, gen uint64) {
	var r elm.Reassembler
	buf := make([]byte, readBufferSize)

	for {
		n, err := transport.Read(buf)
		if n > 0 {
			for _, msg := range r.Feed(buf[:n]) {
				reply := s.codec.Decode(msg)
				s.logger.Debug("Reply received", "message", msg, "name", reply.Name)
				s.emit(Event{Kind: EventDataReceived, Reply: reply})
			}
		}
		if err == nil {
			continue
		}

		// A transport closed by Disconnect or an earlier fault is not news.
		if !s.fault(gen, nil) {
			return
		}
		if errors.Is(err, io.EOF) {
			s.emitError("OBD-II device closed the connection.")
		} else {
			s.emitError("Error with OBD-II device: " + err.Error())
		}
		return
	}
}

// fault moves the connection gen from Connected to Faulted: both tickers
// are stopped, the pollers and the queue are dropped and the transport is
// closed. self is the loop fault is called from, which cannot be waited for.
// It reports whether the transition happened.
func (s *Session) fault(gen uint64, self *tickLoop) bool {
	s.mu.Lock()
	if s.gen != gen || s.state != StateConnected {
		s.mu.Unlock()
		return false
	}
	drain, poll, transport := s.drain, s.poll, s.transport
	s.drain, s.poll, s.transport = nil, nil, nil
	s.queue.Clear()
	s.pollers = nil
	s.pollInterval = 0
	s.state = StateFaulted
	s.mu.Unlock()

	drain.halt()
	poll.halt()
	if transport != nil {
		transport.Close()
	}
	for _, l := range []*tickLoop{drain, poll} {
		if l != self {
			l.wait()
		}
	}
	s.logger.Warn("Session faulted")
	return true
}

func (s *Session) emit(ev Event) {
	s.emitMu.RLock()
	defer s.emitMu.RUnlock()
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("Event channel full, dropping event", "kind", ev.Kind, "message", ev.Message)
	}
}

func (s *Session) emitError(msg string) {
	s.logger.Warn("OBD-II error", "message", msg)
	s.emit(Event{Kind: EventError, Message: msg})
}

func (s *Session) debug(msg string) {
	s.logger.Debug(msg)
	s.emit(Event{Kind: EventDebug, Message: msg})
}
